package demo

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// BlockedMessage is shown for every refused write.
const BlockedMessage = "The catalog is read-only in demo mode"

// ContextKeyDemoMode holds a bool for templates.
const ContextKeyDemoMode = "demo_mode"

// Middleware keeps the demo catalog read-only. Visitors may still sign in
// and out so the admin can be explored.
type Middleware struct {
	enabled  bool
	writable map[string]bool
}

func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{
		enabled:  enabled,
		writable: map[string]bool{"/login": true, "/logout": true},
	}
}

func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler refuses every unsafe request outside the login pages. API
// clients get a JSON 403. Browsers posting an admin form are sent back to
// it with the message in the error query parameter.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled || m.permitted(c.Request) {
			c.Next()
			return
		}

		switch {
		case wantsJSON(c):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": BlockedMessage, "demo_mode": true})
		case backToForm(c.Request) != "":
			c.Redirect(http.StatusSeeOther, backToForm(c.Request))
			c.Abort()
		default:
			c.String(http.StatusForbidden, BlockedMessage)
			c.Abort()
		}
	}
}

func (m *Middleware) permitted(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return m.writable[r.URL.Path]
}

func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

// backToForm returns the referring admin page with the blocked message
// attached, or "" when the referer is missing or off-site.
func backToForm(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host || !strings.HasPrefix(ref.Path, "/admin/") {
		return ""
	}
	q := ref.Query()
	q.Set("error", BlockedMessage)
	ref.RawQuery = q.Encode()
	return ref.RequestURI()
}

// InjectContext exposes the demo flag to templates.
func (m *Middleware) InjectContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyDemoMode, m.enabled)
		c.Next()
	}
}
