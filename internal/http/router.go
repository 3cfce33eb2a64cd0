package http

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/mrlokans/locallibrary/internal/admin"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
)

// apiLimiterIdle is how long an idle client keeps its token bucket.
const apiLimiterIdle = 10 * time.Minute

// hstsMaxAge is one year, sent only when cookies are marked secure.
const hstsMaxAge = 365 * 24 * 60 * 60

// NewRouter creates and configures the HTTP router with all endpoints.
// The returned function stops background goroutines owned by the router.
func NewRouter(cfg RouterConfig) (*gin.Engine, func()) {
	var stops []func()

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(hstsMaxAge))
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	authMiddleware := cfg.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = auth.NewMiddleware(nil, nil, config.Auth{Mode: config.AuthModeNone})
	}
	router.Use(authMiddleware.Handler())

	// Inject auth data for templates
	router.Use(AuthContextMiddleware(cfg.AuthConfig.Mode))

	demoMode := cfg.DemoMiddleware != nil && cfg.DemoMiddleware.IsEnabled()
	if demoMode {
		router.Use(cfg.DemoMiddleware.InjectContext())
		router.Use(cfg.DemoMiddleware.Handler())
	}

	tmpl := template.Must(LoadTemplates(cfg.TemplatesPath))
	router.SetHTMLTemplate(tmpl)

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	health := NewHealthController(cfg.Database, cfg.Version, demoMode)
	router.GET("/health", health.Status)
	router.GET("/ping", Ping)
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, auth.AdminHome)
	})

	api := router.Group("/api")
	if cfg.RateLimit.APIEnabled {
		limiter := auth.NewKeyedLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst, apiLimiterIdle)
		stops = append(stops, limiter.Stop)
		api.Use(auth.ClientRateLimitMiddleware(limiter))
	}

	// Register auth routes if auth service is available
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, tmpl, cfg.AuthConfig)
		if cfg.AuthEvents != nil {
			authController.WithEventLogger(cfg.AuthEvents)
		}
		authController.RegisterRoutes(router)
		stops = append(stops, authController.Stop)

		// API token management endpoints
		tokenController := auth.NewAPITokenController(cfg.AuthService)
		api.POST("/auth/token", tokenController.GenerateToken)
		api.DELETE("/auth/token", tokenController.RevokeToken)

		users := NewUsersController(cfg.AuthService)
		api.POST("/auth/password", users.ChangePassword)
		users.RegisterRoutes(api.Group("/users", authMiddleware.RequireSuperuser()))
	}

	site := admin.DefaultSite()

	// Catalog API: every role reads, editors write
	catalog := api.Group("", authMiddleware.RequireCatalogWrite())
	NewGenresController(cfg.Stores.Genres, cfg.Auditor, cfg.Catalog).RegisterRoutes(catalog.Group("/genres"))
	NewPublishersController(cfg.Stores.Publishers, cfg.Auditor, cfg.Catalog).RegisterRoutes(catalog.Group("/publishers"))
	NewLanguagesController(cfg.Stores.Languages, cfg.Auditor, cfg.Catalog).RegisterRoutes(catalog.Group("/languages"))
	NewAuthorsController(cfg.Stores.Authors, cfg.Auditor, cfg.Catalog).RegisterRoutes(catalog.Group("/authors"))
	NewBooksController(cfg.Stores.Books, cfg.Stores.Instances, cfg.Auditor, cfg.Catalog).RegisterRoutes(catalog.Group("/books"))
	NewInstancesController(cfg.Stores.Instances, cfg.Auditor, cfg.Catalog).RegisterRoutes(catalog.Group("/instances"))

	catalogController := NewCatalogController(site, cfg.Database, cfg.LoanReporter)
	api.GET("/admin/models", catalogController.Models)
	api.GET("/admin/models/:model", catalogController.Model)
	api.GET("/catalog/summary", catalogController.Summary)

	superuser := api.Group("", authMiddleware.RequireSuperuser())
	if cfg.AuditReader != nil {
		auditController := NewAuditController(cfg.AuditReader)
		superuser.GET("/audit", auditController.GetAuditEvents)
		superuser.GET("/audit/:entity/:id", auditController.GetHistory)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		NewTasksController(cfg.TaskQueue, cfg.JobScheduler, cfg.JobSettings).RegisterRoutes(superuser.Group("/tasks"))
	}

	// HTML admin
	adminController := NewAdminController(site, cfg.Stores, cfg.Database, cfg.Auditor, cfg.Catalog)
	if cfg.SessionManager != nil {
		adminController.WithFlash(cfg.SessionManager)
	}
	adminController.RegisterRoutes(router.Group("/admin", authMiddleware.RequireCatalogWrite()))

	return router, func() {
		for _, stop := range stops {
			stop()
		}
	}
}
