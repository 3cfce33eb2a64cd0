package auth

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2/memstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

func openSessionDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/sessions.db"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	return sqlDB
}

// sessionRouter exposes the session operations the admin pages rely on.
func sessionRouter(t *testing.T, sm *SessionManager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.POST("/signin", func(c *gin.Context) {
		user := &entities.User{ID: 12, Username: "marian", Role: entities.UserRoleLibrarian}
		require.NoError(t, sm.CreateSession(c.Request, user))
		sm.Flash(c.Request, "Welcome back")
		c.Redirect(http.StatusFound, AdminHome)
	})
	router.GET("/whoami", func(c *gin.Context) {
		data := sm.GetSessionData(c.Request)
		if data == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":       data.UserID,
			"username": data.Username,
			"role":     data.Role,
			"fresh":    time.Since(data.LoginAt) < time.Minute,
			"flash":    sm.PopFlash(c.Request),
		})
	})
	router.POST("/signout", func(c *gin.Context) {
		require.NoError(t, sm.DestroySession(c.Request))
		c.Status(http.StatusNoContent)
	})
	return router
}

func serve(router *gin.Engine, method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range (&http.Response{Header: w.Header()}).Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	return nil
}

func TestSessionManager_CookieSettings(t *testing.T) {
	sm, err := NewSessionManager(openSessionDB(t), config.DriverSQLite, config.Auth{SecureCookies: true})
	require.NoError(t, err)

	assert.Equal(t, "session", sm.Cookie.Name)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.True(t, sm.Cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, sm.Cookie.SameSite)
	assert.Equal(t, 24*time.Hour, sm.Lifetime)
	assert.Equal(t, 12*time.Hour, sm.IdleTimeout)
}

func TestSessionManager_MemstoreForPostgres(t *testing.T) {
	sm, err := NewSessionManager(nil, config.DriverPostgres, config.Auth{SessionLifetime: time.Hour})
	require.NoError(t, err)

	assert.IsType(t, &memstore.MemStore{}, sm.Store)
	assert.Equal(t, time.Hour, sm.Lifetime)
}

func TestSessionManager_Lifecycle(t *testing.T) {
	sm, err := NewSessionManager(openSessionDB(t), config.DriverSQLite, config.Auth{SessionLifetime: time.Hour})
	require.NoError(t, err)
	router := sessionRouter(t, sm)

	w := serve(router, http.MethodGet, "/whoami", nil)
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
	assert.Nil(t, sessionCookie(w), "anonymous reads must not start a session")

	w = serve(router, http.MethodPost, "/signin", nil)
	require.Equal(t, http.StatusFound, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)

	w = serve(router, http.MethodGet, "/whoami", cookie)
	assert.JSONEq(t,
		`{"id":12,"username":"marian","role":"librarian","fresh":true,"flash":"Welcome back"}`,
		w.Body.String())

	// The flash message is shown once
	w = serve(router, http.MethodGet, "/whoami", cookie)
	assert.Contains(t, w.Body.String(), `"flash":""`)

	w = serve(router, http.MethodPost, "/signout", cookie)
	require.Equal(t, http.StatusNoContent, w.Code)
	if expired := sessionCookie(w); assert.NotNil(t, expired) {
		assert.Empty(t, expired.Value)
	}

	w = serve(router, http.MethodGet, "/whoami", cookie)
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
}

func TestSessionManager_SignInRenewsToken(t *testing.T) {
	sm, err := NewSessionManager(openSessionDB(t), config.DriverSQLite, config.Auth{})
	require.NoError(t, err)
	router := sessionRouter(t, sm)

	first := sessionCookie(serve(router, http.MethodPost, "/signin", nil))
	require.NotNil(t, first)
	second := sessionCookie(serve(router, http.MethodPost, "/signin", first))
	require.NotNil(t, second)

	assert.NotEqual(t, first.Value, second.Value)
	w := serve(router, http.MethodGet, "/whoami", first)
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
}
