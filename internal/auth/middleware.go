package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// AuthType records how a request was authenticated.
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// DefaultUserID stands for anonymous requests and for everyone when
// authentication is disabled.
const DefaultUserID = uint(0)

const identityKey = "auth_identity"

// Identity is the acting staff member of a request.
type Identity struct {
	UserID   uint
	Username string
	Role     entities.UserRole
	Via      AuthType
}

// anonymous is used for public paths. Without auth everyone is a superuser.
var (
	anonymous    = Identity{Via: AuthTypeNone}
	openAccessID = Identity{Role: entities.UserRoleSuperuser, Via: AuthTypeNone}
)

// SetIdentity attaches id to the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// CurrentIdentity returns the acting identity, anonymous when unset.
func CurrentIdentity(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return anonymous
}

func GetUserID(c *gin.Context) uint { return CurrentIdentity(c).UserID }
func GetUsername(c *gin.Context) string { return CurrentIdentity(c).Username }
func GetUserRole(c *gin.Context) entities.UserRole { return CurrentIdentity(c).Role }
func GetAuthType(c *gin.Context) AuthType { return CurrentIdentity(c).Via }

// IsAuthenticated is true for signed-in staff and for every request when
// authentication is disabled.
func IsAuthenticated(c *gin.Context) bool {
	id := CurrentIdentity(c)
	return id.UserID != DefaultUserID || id.Role == entities.UserRoleSuperuser
}

// CanEditCatalog reports whether the request may change catalog records.
func CanEditCatalog(c *gin.Context) bool {
	return GetUserRole(c).CanEditCatalog()
}

// Middleware resolves the identity of each request from an API token or
// the admin session.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	publicPaths    map[string]bool
}

func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		publicPaths: map[string]bool{
			"/health":      true,
			"/ping":        true,
			"/login":       true,
			"/setup":       true,
			"/favicon.ico": true,
		},
	}
}

func (m *Middleware) disabled() bool {
	return m.config.Mode == config.AuthModeNone
}

// Handler authenticates every request. Unknown visitors outside the public
// paths are refused.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch {
		case m.disabled():
			SetIdentity(c, openAccessID)
		case m.isPublic(c.Request.URL.Path):
			SetIdentity(c, anonymous)
		default:
			user, via := m.resolve(c)
			if user == nil {
				m.deny(c, http.StatusUnauthorized, "authentication required")
				return
			}
			SetIdentity(c, Identity{UserID: user.ID, Username: user.Username, Role: user.Role, Via: via})
		}
		c.Next()
	}
}

// resolve tries the Bearer token first, then the session. Session users
// are reloaded so role changes and deletions apply immediately.
func (m *Middleware) resolve(c *gin.Context) (*entities.User, AuthType) {
	if scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && strings.EqualFold(scheme, "bearer") {
		if user, err := m.service.ValidateToken(token); err == nil {
			return user, AuthTypeBearer
		}
	}
	if m.sessionManager != nil {
		if id := m.sessionManager.GetUserID(c.Request); id != DefaultUserID {
			if user, err := m.service.GetUserByID(id); err == nil {
				return user, AuthTypeSession
			}
		}
	}
	return nil, AuthTypeNone
}

func (m *Middleware) isPublic(path string) bool {
	return m.publicPaths[path] || strings.HasPrefix(path, "/static/")
}

// wantsJSON is true for the API, JSON clients and any request carrying an
// Authorization header, valid or not.
func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json") ||
		c.GetHeader("Authorization") != ""
}

// deny answers JSON clients with an error body. Browsers are sent to the
// login page when unauthenticated and get a bare status otherwise.
func (m *Middleware) deny(c *gin.Context, status int, message string) {
	switch {
	case wantsJSON(c):
		c.AbortWithStatusJSON(status, gin.H{"error": message})
	case status == http.StatusUnauthorized:
		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	default:
		c.AbortWithStatus(status)
	}
}

// guard builds a middleware that lets a request through when allow
// returns true. Disabled auth allows everything.
func (m *Middleware) guard(status int, message string, allow func(*gin.Context) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.disabled() || allow(c) {
			c.Next()
			return
		}
		m.deny(c, status, message)
	}
}

// RequireAuth refuses anonymous requests on otherwise public routes.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return m.guard(http.StatusUnauthorized, "authentication required", func(c *gin.Context) bool {
		return GetUserID(c) != DefaultUserID
	})
}

// RequireSuperuser restricts a route group to superusers.
func (m *Middleware) RequireSuperuser() gin.HandlerFunc {
	return m.guard(http.StatusForbidden, "insufficient permissions", func(c *gin.Context) bool {
		return GetUserRole(c) == entities.UserRoleSuperuser
	})
}

// RequireCatalogWrite lets every role read. Writes need a role that may
// edit the catalog.
func (m *Middleware) RequireCatalogWrite() gin.HandlerFunc {
	return m.guard(http.StatusForbidden, "insufficient permissions", func(c *gin.Context) bool {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return true
		}
		return CanEditCatalog(c)
	})
}
