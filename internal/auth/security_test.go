package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/admin/catalog/book/", "/admin/catalog/book/"},
		{"/admin/catalog/book/?q=tolkien&o=-1", "/admin/catalog/book/?q=tolkien&o=-1"},
		{"/catalog/https://mirror", "/catalog/https://mirror"},
		{"", ""},
		{"admin/", ""},
		{"//evil.example.org", ""},
		{"https://evil.example.org/admin/", ""},
		{"javascript:alert(1)", ""},
		{"/\\evil.example.org", ""},
		{"/admin/\r\nSet-Cookie: x=1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, localPath(tt.next))
		})
	}

	assert.Equal(t, AdminHome, redirectAfterLogin("//evil.example.org"))
	assert.Equal(t, "/admin/catalog/genre/", redirectAfterLogin("/admin/catalog/genre/"))
}

func TestAccountPatterns(t *testing.T) {
	usernames := map[string]bool{
		"marian":         true,
		"m.librarian+ro": true,
		"front-desk_2":   true,
		"ab":             false,
		"front desk":     false,
		"shelf/manager":  false,
		strings.Repeat("x", 65): false,
	}
	for name, ok := range usernames {
		assert.Equal(t, ok, usernamePattern.MatchString(name), "username %q", name)
	}

	emails := map[string]bool{
		"marian@library.example":   true,
		"front.desk+loans@lib.org": true,
		"marian":                   false,
		"@library.example":         false,
		"marian@library":           false,
		"marian@.org":              false,
	}
	for addr, ok := range emails {
		assert.Equal(t, ok, emailPattern.MatchString(addr), "email %q", addr)
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(), StrictTransportSecurityMiddleware(3600))
	router.GET("/admin/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.Host = "library.example"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "form-action 'self' https://library.example")
	assert.Contains(t, w.Header().Get("Permissions-Policy"), "camera=()")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "plain HTTP must not get HSTS")

	req = httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "max-age=3600; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}
