package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

const staffPassword = "shelf-mark-0042"

// accessHarness is a router guarded the way the catalog guards its routes:
// /admin needs a catalog role for writes, /api/audit needs a superuser.
type accessHarness struct {
	router  *gin.Engine
	service *Service
}

func newAccessHarness(t *testing.T, mode config.AuthMode) *accessHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/auth.db"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)

	cfg := config.Auth{
		Mode:            mode,
		SessionLifetime: time.Hour,
		TokenExpiry:     time.Hour,
		BcryptCost:      4,
	}
	service := NewService(db, cfg)
	sm, err := NewSessionManager(sqlDB, config.DriverSQLite, cfg)
	require.NoError(t, err)
	mw := NewMiddleware(service, sm, cfg)

	controller := NewAuthController(service, sm, nil, cfg)
	t.Cleanup(controller.Stop)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.Use(mw.Handler())
	controller.RegisterRoutes(router)

	whoami := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetUserID(c),
			"username": GetUsername(c),
			"role":     GetUserRole(c),
			"via":      GetAuthType(c),
		})
	}
	router.GET("/health", whoami)
	router.GET("/static/admin.css", whoami)

	admin := router.Group("/admin", mw.RequireCatalogWrite())
	admin.GET("/", whoami)
	admin.POST("/genres/add", whoami)

	api := router.Group("/api")
	api.GET("/genres", mw.RequireAuth(), whoami)
	api.POST("/genres", mw.RequireCatalogWrite(), whoami)
	api.GET("/audit", mw.RequireSuperuser(), whoami)

	return &accessHarness{router: router, service: service}
}

func (h *accessHarness) user(t *testing.T, username string, role entities.UserRole) *entities.User {
	t.Helper()
	user, err := h.service.CreateUser(username, username+"@example.com", staffPassword, role)
	require.NoError(t, err)
	return user
}

func (h *accessHarness) token(t *testing.T, user *entities.User) string {
	t.Helper()
	token, err := h.service.GenerateToken(user.ID)
	require.NoError(t, err)
	return token
}

func (h *accessHarness) do(method, path string, prepare func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if prepare != nil {
		prepare(req)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// login posts the login form and returns the session cookie.
func (h *accessHarness) login(t *testing.T, username, next string) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {username}, "password": {staffPassword}, "next": {next}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	if next != "" {
		assert.Equal(t, next, w.Header().Get("Location"))
	}

	for _, c := range (&http.Response{Header: w.Header()}).Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestAccess_SessionRoles(t *testing.T) {
	h := newAccessHarness(t, config.AuthModeLocal)
	h.user(t, "librarian", entities.UserRoleLibrarian)
	h.user(t, "reader", entities.UserRoleViewer)

	t.Run("librarian edits the catalog", func(t *testing.T) {
		cookie := h.login(t, "librarian", "/admin/genres/")

		w := h.do(http.MethodGet, "/admin/", withCookie(cookie))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"librarian"`)
		assert.Contains(t, w.Body.String(), `"via":"session"`)

		assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/admin/genres/add", withCookie(cookie)).Code)
		assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/audit", withCookie(cookie)).Code)
	})

	t.Run("viewer reads only", func(t *testing.T) {
		cookie := h.login(t, "reader", "")

		assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/admin/", withCookie(cookie)).Code)
		assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/admin/genres/add", withCookie(cookie)).Code)
	})

	t.Run("logout ends the session", func(t *testing.T) {
		cookie := h.login(t, "librarian", "")

		w := h.do(http.MethodPost, "/logout", withCookie(cookie))
		assert.Equal(t, http.StatusFound, w.Code)

		w = h.do(http.MethodGet, "/admin/", withCookie(cookie))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?next=%2Fadmin%2F", w.Header().Get("Location"))
	})

	t.Run("role changes apply to live sessions", func(t *testing.T) {
		demoted := h.user(t, "assistant", entities.UserRoleLibrarian)
		cookie := h.login(t, "assistant", "")
		require.NoError(t, h.service.SetRole(demoted.ID, entities.UserRoleViewer))

		assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/admin/genres/add", withCookie(cookie)).Code)
	})
}

func TestAccess_BearerTokens(t *testing.T) {
	h := newAccessHarness(t, config.AuthModeLocal)
	admin := h.user(t, "admin", entities.UserRoleSuperuser)
	viewer := h.user(t, "reader", entities.UserRoleViewer)
	adminToken := h.token(t, admin)
	viewerToken := h.token(t, viewer)

	w := h.do(http.MethodGet, "/api/audit", withBearer(adminToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"via":"bearer"`)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/genres", withBearer(viewerToken)).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/genres", withBearer(viewerToken)).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/audit", withBearer(viewerToken)).Code)

	require.NoError(t, h.service.RevokeToken(admin.ID))
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/audit", withBearer(adminToken)).Code)

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer ", "Token " + viewerToken} {
		t.Run(header, func(t *testing.T) {
			w := h.do(http.MethodGet, "/admin/", func(r *http.Request) { r.Header.Set("Authorization", header) })
			// An Authorization header marks an API client, so no login redirect
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "authentication required")
		})
	}
}

func TestAccess_Anonymous(t *testing.T) {
	h := newAccessHarness(t, config.AuthModeLocal)

	for _, path := range []string{"/health", "/static/admin.css"} {
		assert.Equal(t, http.StatusOK, h.do(http.MethodGet, path, nil).Code, path)
	}

	w := h.do(http.MethodGet, "/admin/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fadmin%2F", w.Header().Get("Location"))

	w = h.do(http.MethodGet, "/admin/", func(r *http.Request) { r.Header.Set("Accept", "application/json") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodGet, "/api/genres", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestAccess_NoAuthModeGrantsSuperuser(t *testing.T) {
	h := newAccessHarness(t, config.AuthModeNone)

	w := h.do(http.MethodGet, "/api/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"superuser"`)
	assert.Contains(t, w.Body.String(), `"user_id":0`)

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/admin/genres/add", nil).Code)
}

func TestContextAccessors_Defaults(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, DefaultUserID, GetUserID(c))
	assert.Empty(t, GetUsername(c))
	assert.Empty(t, GetUserRole(c))
	assert.Equal(t, AuthTypeNone, GetAuthType(c))
	assert.False(t, CanEditCatalog(c))
	assert.False(t, IsAuthenticated(c))

	SetIdentity(c, Identity{UserID: 7, Username: "marian", Role: entities.UserRoleLibrarian, Via: AuthTypeSession})
	assert.True(t, IsAuthenticated(c))
	assert.True(t, CanEditCatalog(c))
	assert.Equal(t, "marian", GetUsername(c))

	SetIdentity(c, openAccessID)
	assert.True(t, IsAuthenticated(c), "disabled auth treats everyone as signed in")
}
