package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/audit"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	auditrepo "github.com/mrlokans/locallibrary/internal/database/audit"
	"github.com/mrlokans/locallibrary/internal/database/authors"
	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/database/genres"
	"github.com/mrlokans/locallibrary/internal/database/instances"
	"github.com/mrlokans/locallibrary/internal/database/languages"
	"github.com/mrlokans/locallibrary/internal/database/publishers"
	"github.com/mrlokans/locallibrary/internal/database/settings"
	"github.com/mrlokans/locallibrary/internal/demo"
	"github.com/mrlokans/locallibrary/internal/entities"
	http_controllers "github.com/mrlokans/locallibrary/internal/http"
	"github.com/mrlokans/locallibrary/internal/scheduler"
	"github.com/mrlokans/locallibrary/internal/settingsstore"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	slog.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so no job writes after the server is gone
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server exiting")
	return nil
}

// OpenDatabase opens the catalog store. Demo mode swaps in the demo
// database and seeds it when empty.
func OpenDatabase(cfg *config.Config) (*database.Database, error) {
	dbCfg := cfg.Database
	if cfg.Demo.Enabled {
		dbCfg.Driver = config.DriverSQLite
		dbCfg.Path = cfg.Demo.DBPath
		if err := os.MkdirAll(filepath.Dir(dbCfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create demo directory: %w", err)
		}
	}

	db, err := database.NewDatabase(dbCfg)
	if err != nil {
		return nil, err
	}

	if cfg.Demo.Enabled {
		result, err := demo.Seed(db.DB, entities.Today())
		switch {
		case errors.Is(err, demo.ErrCatalogNotEmpty):
			slog.Info("demo catalog already seeded", "path", dbCfg.Path)
		case err != nil:
			_ = db.Close()
			return nil, fmt.Errorf("failed to seed demo catalog: %w", err)
		default:
			slog.Info("demo catalog seeded", "books", result.Books, "instances", result.Instances)
		}
	}
	return db, nil
}

// Stores builds every catalog repository on db.
func Stores(db *gorm.DB) http_controllers.Stores {
	return http_controllers.Stores{
		Genres:     genres.NewRepository(db),
		Publishers: publishers.NewRepository(db),
		Languages:  languages.NewRepository(db),
		Authors:    authors.NewRepository(db),
		Books:      books.NewRepository(db),
		Instances:  instances.NewRepository(db),
	}
}

// csrfSecret decodes AUTH_SESSION_SECRET, generating one when unset.
func csrfSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		// Not hex, use as raw bytes
		return []byte(configured), nil
	}
	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, err
	}
	slog.Warn("generated session secret, set AUTH_SESSION_SECRET to keep sessions across restarts")
	return hex.DecodeString(secret)
}

// Run wires every component and serves until interrupted.
func Run(cfg *config.Config, version string) error {
	slog.Info("starting locallibrary", "version", version)

	var demoMiddleware *demo.Middleware
	if cfg.Demo.Enabled {
		slog.Info("demo mode enabled, write operations will be blocked")
		demoMiddleware = demo.NewMiddleware(true)
	}

	db, err := OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()

	stores := Stores(db.DB)
	instanceRepo := instances.NewRepository(db.DB)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB), audit.NewArchiveWriter(cfg.Audit.Dir))
	defer auditService.Wait()

	var (
		taskClient    *tasks.Client
		taskCtxCancel context.CancelFunc
		jobScheduler  *scheduler.MaintenanceScheduler
		jobSettings   *settingsstore.SettingsStore
	)
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(queuePath(cfg), tasks.FromConfig(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				slog.Error("error closing task client", "error", err)
			}
		}()

		taskClient.Register(
			tasks.NewOverdueScanQueue(instanceRepo, auditService, auditService),
			tasks.NewCleanupAuditEventsQueue(auditService, auditService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		jobSettings = settingsstore.New(settings.NewRepository(db.DB), cfg.Maintenance)
		jobScheduler = scheduler.NewMaintenanceScheduler(jobSettings, taskClient, cfg.Audit.RetentionDays)
		if err := jobScheduler.Start(taskCtx); err != nil {
			slog.Error("failed to start maintenance scheduler", "error", err)
		}
	}

	var (
		authService    *auth.Service
		authMiddleware *auth.Middleware
		sessionManager *auth.SessionManager
		secret         []byte
	)
	if cfg.Auth.Mode == config.AuthModeLocal {
		slog.Info("authentication mode: local")
		authService = auth.NewService(db.DB, cfg.Auth)

		sqlDB, err := db.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
		}
		sessionManager, err = auth.NewSessionManager(sqlDB, db.Driver, cfg.Auth)
		if err != nil {
			return fmt.Errorf("failed to initialize session manager: %w", err)
		}
		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		if secret, err = csrfSecret(cfg.Auth.SessionSecret); err != nil {
			return fmt.Errorf("failed to generate CSRF secret: %w", err)
		}

		if hasUsers, _ := authService.HasUsers(); !hasUsers {
			slog.Warn("no users found, visit /setup or run createsuperuser")
		}
	} else {
		slog.Info("authentication mode: none, every request acts as superuser")
	}

	routerCfg := http_controllers.RouterConfig{
		Stores:         stores,
		Database:       db,
		LoanReporter:   instanceRepo,
		Catalog:        cfg.Catalog,
		Auditor:        auditService,
		AuditReader:    auditService,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     secret,
		SecureCookies:  cfg.Auth.SecureCookies,
		RateLimit:      cfg.RateLimit,
		DemoMiddleware: demoMiddleware,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	}
	if authService != nil {
		routerCfg.AuthEvents = auditService
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
		routerCfg.JobScheduler = jobScheduler
		routerCfg.JobSettings = jobSettings
	}

	router, stopRouter := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		stopRouter()
		if jobScheduler != nil {
			jobScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	return Serve(router, cfg, onShutdown)
}

// queuePath is the file the task queue database is kept next to.
func queuePath(cfg *config.Config) string {
	if cfg.Demo.Enabled {
		return cfg.Demo.DBPath
	}
	if cfg.Database.Driver == config.DriverPostgres || cfg.Database.Path == "" {
		return config.DefaultDatabasePath
	}
	return cfg.Database.Path
}
