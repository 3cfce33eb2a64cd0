package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

const (
	// CSRFTokenHeader carries the token for script-driven admin requests.
	CSRFTokenHeader = "X-CSRF-Token"
	// CSRFFormField is the hidden form field gorilla/csrf reads.
	CSRFFormField = "gorilla.csrf.Token"
)

const csrfContextKey = "csrf_token"

// CSRFMiddleware guards admin form posts. Requests authenticated with a
// valid API token are exempt. Without secure cookies the site is assumed
// to be served over plain HTTP, so gorilla/csrf skips its HTTPS referer
// check.
func CSRFMiddleware(secret []byte, secure bool, authService *Service) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.FieldName(CSRFFormField),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(c *gin.Context) {
		if hasValidAPIToken(c, authService) {
			c.Next()
			return
		}

		passed := false
		next := protect(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set(csrfContextKey, csrf.Token(r))
			c.Request = r
			c.Next()
		}))

		r := c.Request
		if !secure {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(c.Writer, r)
		if !passed {
			c.Abort()
		}
	}
}

const csrfFailurePage = `<!DOCTYPE html>
<html lang="en">
<head><title>403 Forbidden</title></head>
<body>
<h1>Forbidden (403)</h1>
<p>CSRF verification failed. Request aborted.</p>
<p>Reload the form and submit it again. If the problem persists, log in again.</p>
</body>
</html>`

// csrfFailure answers a rejected post. Browsers coming from an admin form
// are sent back to it with an error note.
func csrfFailure(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"CSRF verification failed"}`))
		return
	}

	if back := sameHostReferer(r); back != nil {
		q := back.Query()
		q.Set("error", "Your form expired. Please try again.")
		back.RawQuery = q.Encode()
		http.Redirect(w, r, back.RequestURI(), http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(csrfFailurePage))
}

// sameHostReferer returns the referring page when it belongs to this site.
func sameHostReferer(r *http.Request) *url.URL {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host == "" || ref.Host != r.Host {
		return nil
	}
	return ref
}

func hasValidAPIToken(c *gin.Context, authService *Service) bool {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return false
	}
	if authService == nil {
		return true
	}
	_, err := authService.ValidateToken(token)
	return err == nil
}

// GetCSRFToken returns the masked token for the current request.
func GetCSRFToken(c *gin.Context) string {
	if token, ok := c.Get(csrfContextKey); ok {
		if s, ok := token.(string); ok {
			return s
		}
	}
	return ""
}
