package auth

import (
	"bufio"
	"database/sql"
	"encoding/gob"
	"net"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keyRole     = "role"
	keyLoginAt  = "login_at"
	keyFlash    = "flash"
)

const defaultSessionLifetime = 24 * time.Hour

// sqlite3store expects this table; it is created next to the catalog.
const sessionsDDL = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func init() {
	gob.Register(entities.UserRole(""))
	gob.Register(time.Time{})
}

// SessionManager keeps staff logins in cookie-keyed server side sessions.
type SessionManager struct {
	*scs.SessionManager
}

// SessionData is what a login stores.
type SessionData struct {
	UserID   uint
	Username string
	Role     entities.UserRole
	LoginAt  time.Time
}

// NewSessionManager stores sessions in the catalog database for sqlite and
// in process memory for postgres.
func NewSessionManager(sqlDB *sql.DB, driver string, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()
	sm.Store = memstore.New()
	if driver == config.DriverSQLite {
		if _, err := sqlDB.Exec(sessionsDDL); err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	}

	sm.Lifetime = cfg.SessionLifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = defaultSessionLifetime
	}
	sm.IdleTimeout = sm.Lifetime / 2
	sm.Cookie = scs.SessionCookie{
		Name:     "session",
		Path:     "/",
		HttpOnly: true,
		Persist:  true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	}
	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession signs the user in under a new token.
func (sm *SessionManager) CreateSession(r *http.Request, user *entities.User) error {
	ctx := r.Context()
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, keyUserID, int(user.ID))
	sm.Put(ctx, keyUsername, user.Username)
	sm.Put(ctx, keyRole, user.Role)
	sm.Put(ctx, keyLoginAt, time.Now())
	return nil
}

func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID is 0 for anonymous requests.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), keyUserID))
}

func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != DefaultUserID
}

// GetSessionData returns nil without a login.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	id := sm.GetUserID(r)
	if id == DefaultUserID {
		return nil
	}
	ctx := r.Context()
	role, _ := sm.Get(ctx, keyRole).(entities.UserRole)
	loginAt, _ := sm.Get(ctx, keyLoginAt).(time.Time)
	return &SessionData{
		UserID:   id,
		Username: sm.GetString(ctx, keyUsername),
		Role:     role,
		LoginAt:  loginAt,
	}
}

// Flash queues a message for the next admin page.
func (sm *SessionManager) Flash(r *http.Request, message string) {
	sm.Put(r.Context(), keyFlash, message)
}

func (sm *SessionManager) PopFlash(r *http.Request) string {
	return sm.PopString(r.Context(), keyFlash)
}

// SessionLoadSave loads the session before the handlers run and writes the
// cookie just before the response headers are sent. scs LoadAndSave cannot
// be used directly because gin owns the response writer.
func (sm *SessionManager) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}
		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		w := &sessionWriter{ResponseWriter: c.Writer, sm: sm, req: c.Request}
		c.Writer = w
		c.Next()

		// redirects and empty bodies never call Write
		w.commit()
	}
}

type sessionWriter struct {
	gin.ResponseWriter
	sm        *SessionManager
	req       *http.Request
	committed bool
}

func (w *sessionWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true

	ctx := w.req.Context()
	switch w.sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.sm.Commit(ctx)
		if err == nil {
			w.sm.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
		}
	case scs.Destroyed:
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) WriteHeaderNow() {
	w.commit()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) WriteString(s string) (int, error) {
	w.commit()
	return w.ResponseWriter.WriteString(s)
}

func (w *sessionWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}
