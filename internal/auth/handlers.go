package auth

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// AdminHome is where logins land without a next path.
const AdminHome = "/admin/"

const (
	msgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	msgLocked         = "This account is temporarily locked. Please try again later."
	msgThrottled      = "Too many login attempts. Please try again later."
	msgMismatch       = "The two password fields didn't match."
)

// AuthEventLogger records login activity.
type AuthEventLogger interface {
	LogAuth(userID uint, action string, ipAddr, userAgent string, success bool)
}

// localPath returns next when it names a page on this site and "" otherwise.
// Absolute URLs, scheme-relative hosts and backslash or control character
// tricks are rejected.
func localPath(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") ||
		strings.ContainsAny(next, "\\\r\n\t") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}

// redirectAfterLogin falls back to the admin index.
func redirectAfterLogin(next string) string {
	if path := localPath(next); path != "" {
		return path
	}
	return AdminHome
}

// AuthController serves the staff login, logout and first-run setup pages.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	templates      *template.Template
	config         config.Auth
	rateLimiter    *RateLimiter
	events         AuthEventLogger

	// setupMu makes the "no users yet" check and the first insert atomic.
	setupMu sync.Mutex
}

// NewAuthController builds the controller. With nil templates pages are
// answered as JSON.
func NewAuthController(service *Service, sessionManager *SessionManager, templates *template.Template, cfg config.Auth) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		templates:      templates,
		config:         cfg,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
	}
}

// WithEventLogger attaches an audit sink for login attempts.
func (ac *AuthController) WithEventLogger(events AuthEventLogger) *AuthController {
	ac.events = events
	return ac
}

func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/logout", ac.Logout)
	router.POST("/logout", ac.Logout)
	router.GET("/setup", ac.SetupPage)
	router.POST("/setup", ac.Setup)
}

// Stop ends the login limiter's cleanup loop.
func (ac *AuthController) Stop() {
	ac.rateLimiter.Stop()
}

// page starts the template data shared by the auth pages.
func page(c *gin.Context, title string) gin.H {
	return gin.H{"Title": title, "CSRFToken": GetCSRFToken(c)}
}

// LoginPage handles GET /login. Signed-in staff go straight to the admin
// and an empty install goes to setup.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, AdminHome)
		return
	}
	if hasUsers, _ := ac.service.HasUsers(); !hasUsers {
		c.Redirect(http.StatusFound, "/setup")
		return
	}

	data := page(c, "Log in")
	data["Next"] = localPath(c.Query("next"))
	data["Error"] = c.Query("error")
	ac.render(c, http.StatusOK, "login", data)
}

// Login handles POST /login.
func (ac *AuthController) Login(c *gin.Context) {
	username := c.PostForm("username")
	next := c.PostForm("next")
	ip := c.ClientIP()

	data := page(c, "Log in")
	data["Next"] = localPath(next)
	data["Username"] = username

	if allowed, retryAfter := ac.rateLimiter.Allow(ip, username); !allowed {
		c.Header("Retry-After", retryAfterSeconds(retryAfter))
		data["Error"] = msgThrottled
		ac.render(c, http.StatusTooManyRequests, "login", data)
		return
	}

	user, err := ac.service.Authenticate(username, c.PostForm("password"))
	if err != nil {
		ac.rateLimiter.RecordFailure(ip, username)
		ac.logAuth(c, DefaultUserID, "login_failed", false)
		data["Error"] = msgBadCredentials
		if errors.Is(err, ErrAccountLocked) {
			data["Error"] = msgLocked
		}
		ac.render(c, http.StatusUnauthorized, "login", data)
		return
	}
	ac.rateLimiter.RecordSuccess(ip, username)

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			data["Error"] = "Could not start a session. Please try again."
			ac.render(c, http.StatusInternalServerError, "login", data)
			return
		}
	}
	ac.logAuth(c, user.ID, "login", true)
	c.Redirect(http.StatusFound, redirectAfterLogin(next))
}

// Logout ends the session and returns to the login page.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		userID := ac.sessionManager.GetUserID(c.Request)
		_ = ac.sessionManager.DestroySession(c.Request)
		if userID != DefaultUserID {
			ac.logAuth(c, userID, "logout", true)
		}
	}
	c.Redirect(http.StatusFound, "/login")
}

// setupOpen reports whether the first superuser is still missing. It
// answers the request itself when not.
func (ac *AuthController) setupOpen(c *gin.Context) bool {
	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		data := page(c, "Initial setup")
		data["Error"] = "Database error. Please try again."
		ac.render(c, http.StatusInternalServerError, "setup", data)
		return false
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/login")
		return false
	}
	return true
}

// SetupPage handles GET /setup.
func (ac *AuthController) SetupPage(c *gin.Context) {
	if !ac.setupOpen(c) {
		return
	}
	data := page(c, "Initial setup")
	data["Error"] = c.Query("error")
	ac.render(c, http.StatusOK, "setup", data)
}

// Setup handles POST /setup, creating the first superuser and signing
// them in.
func (ac *AuthController) Setup(c *gin.Context) {
	ac.setupMu.Lock()
	defer ac.setupMu.Unlock()

	if !ac.setupOpen(c) {
		return
	}

	username, email, password := c.PostForm("username"), c.PostForm("email"), c.PostForm("password")
	data := page(c, "Initial setup")
	data["Username"] = username
	data["Email"] = email

	if password != c.PostForm("confirm_password") {
		data["Error"] = msgMismatch
		ac.render(c, http.StatusBadRequest, "setup", data)
		return
	}

	user, err := ac.service.CreateUser(username, email, password, entities.UserRoleSuperuser)
	if errors.Is(err, ErrUserExists) {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if err != nil {
		data["Error"] = setupErrorMessage(err)
		ac.render(c, http.StatusBadRequest, "setup", data)
		return
	}

	if ac.sessionManager != nil {
		_ = ac.sessionManager.CreateSession(c.Request, user)
	}
	ac.logAuth(c, user.ID, "setup", true)
	c.Redirect(http.StatusFound, AdminHome)
}

var setupMessages = []struct {
	err error
	msg string
}{
	{ErrPasswordTooShort, "This password is too short. It must contain at least 12 characters."},
	{ErrPasswordTooLong, "This password is too long. It must not exceed 72 bytes."},
	{ErrPasswordNumeric, "This password is entirely numeric."},
	{ErrPasswordCommon, "This password is too common."},
	{ErrPasswordSimilar, "The password is too similar to the username or email."},
	{ErrUsernameRequired, "Username is required."},
	{ErrUsernameInvalid, "Enter a valid username. " + ErrUsernameInvalid.Error() + "."},
	{ErrEmailRequired, "Email is required."},
	{ErrEmailInvalid, "Enter a valid email address."},
}

func setupErrorMessage(err error) string {
	for _, m := range setupMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Could not create the account."
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, success bool) {
	if ac.events != nil {
		ac.events.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
	}
}

func (ac *AuthController) render(c *gin.Context, status int, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(status, data)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "template error: %v", err)
	}
}

// APITokenController lets staff issue and revoke their own API token.
type APITokenController struct {
	service *Service
}

func NewAPITokenController(service *Service) *APITokenController {
	return &APITokenController{service: service}
}

// GenerateToken handles POST /api/auth/token. The plaintext is returned
// once and replaces any earlier token.
func (tc *APITokenController) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == DefaultUserID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	token, err := tc.service.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token now, it will not be shown again",
	})
}

// RevokeToken handles DELETE /api/auth/token.
func (tc *APITokenController) RevokeToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == DefaultUserID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if err := tc.service.RevokeToken(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
