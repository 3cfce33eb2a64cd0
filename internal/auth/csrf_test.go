package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

var csrfTestSecret = []byte("0123456789abcdef0123456789abcdef")

// csrfRouter serves an admin add form and records whether posts got through.
func csrfRouter(t *testing.T, svc *Service) (*gin.Engine, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	saved := 0
	router := gin.New()
	router.Use(CSRFMiddleware(csrfTestSecret, false, svc))
	router.GET("/admin/genres/add", func(c *gin.Context) {
		c.String(http.StatusOK, GetCSRFToken(c))
	})
	router.POST("/admin/genres/add", func(c *gin.Context) {
		saved++
		c.String(http.StatusCreated, c.PostForm("name"))
	})
	return router, &saved
}

func postGenre(router *gin.Engine, token string, cookies []*http.Cookie, header http.Header) *httptest.ResponseRecorder {
	form := url.Values{"name": {"Horror"}}
	if token != "" {
		form.Set(CSRFFormField, token)
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/genres/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCSRFMiddleware_FormRoundTrip(t *testing.T) {
	router, saved := csrfRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/genres/add", nil))
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Body.String()
	require.NotEmpty(t, token)
	cookies := (&http.Response{Header: w.Header()}).Cookies()
	require.NotEmpty(t, cookies)

	w = postGenre(router, token, cookies, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Horror", w.Body.String())
	assert.Equal(t, 1, *saved)
}

func TestCSRFMiddleware_RejectsMissingToken(t *testing.T) {
	router, saved := csrfRouter(t, nil)

	t.Run("browser", func(t *testing.T) {
		w := postGenre(router, "", nil, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "CSRF verification failed")
	})

	t.Run("json client", func(t *testing.T) {
		w := postGenre(router, "", nil, http.Header{"Accept": {"application/json"}})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"CSRF verification failed"}`, w.Body.String())
	})

	t.Run("back to the form", func(t *testing.T) {
		w := postGenre(router, "", nil, http.Header{"Referer": {"http://example.com/admin/genres/add?_popup=1"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/admin/genres/add", loc.Path)
		assert.Equal(t, "1", loc.Query().Get("_popup"))
		assert.NotEmpty(t, loc.Query().Get("error"))
	})

	t.Run("foreign referer", func(t *testing.T) {
		w := postGenre(router, "", nil, http.Header{"Referer": {"http://evil.example.org/form"}})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	assert.Zero(t, *saved, "rejected posts must not reach the handler")
}

func TestCSRFMiddleware_APITokens(t *testing.T) {
	t.Run("any bearer without a service", func(t *testing.T) {
		router, saved := csrfRouter(t, nil)
		w := postGenre(router, "", nil, http.Header{"Authorization": {"Bearer whatever"}})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, *saved)
	})

	t.Run("validated against the service", func(t *testing.T) {
		svc := NewService(setupTestDB(t), config.Auth{Mode: config.AuthModeLocal, BcryptCost: 4})
		user, err := svc.CreateUser("librarian", "librarian@example.com", "password12345", entities.UserRoleLibrarian)
		require.NoError(t, err)
		token, err := svc.GenerateToken(user.ID)
		require.NoError(t, err)

		router, saved := csrfRouter(t, svc)
		w := postGenre(router, "", nil, http.Header{"Authorization": {"bearer " + token}})
		assert.Equal(t, http.StatusCreated, w.Code)

		w = postGenre(router, "", nil, http.Header{"Authorization": {"Bearer forged"}})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 1, *saved)
	})
}

func TestGetCSRFToken_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetCSRFToken(c))
}
