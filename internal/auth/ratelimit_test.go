package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRateLimiter(t *testing.T, attempts int, lockout time.Duration) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     attempts,
		WindowDuration:  time.Hour,
		LockoutDuration: lockout,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func TestRateLimiter_LocksAfterRepeatedFailures(t *testing.T) {
	rl := newTestRateLimiter(t, 3, 10*time.Minute)

	for i := 1; i <= 2; i++ {
		allowed, _ := rl.Allow("10.0.0.1", "marian")
		require.True(t, allowed, "attempt %d", i)
		locked, _ := rl.RecordFailure("10.0.0.1", "marian")
		require.False(t, locked, "attempt %d", i)
	}

	locked, lockout := rl.RecordFailure("10.0.0.1", "marian")
	assert.True(t, locked)
	assert.Equal(t, 10*time.Minute, lockout)

	allowed, retryAfter := rl.Allow("10.0.0.1", "marian")
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, 9*time.Minute)

	t.Run("keys are per client and username", func(t *testing.T) {
		allowed, _ := rl.Allow("10.0.0.1", "assistant")
		assert.True(t, allowed)
		allowed, _ = rl.Allow("10.0.0.2", "marian")
		assert.True(t, allowed)
	})
}

func TestRateLimiter_SuccessForgetsFailures(t *testing.T) {
	rl := newTestRateLimiter(t, 2, time.Minute)

	rl.RecordFailure("10.0.0.1", "marian")
	rl.RecordSuccess("10.0.0.1", "marian")
	locked, _ := rl.RecordFailure("10.0.0.1", "marian")

	assert.False(t, locked)
	allowed, _ := rl.Allow("10.0.0.1", "marian")
	assert.True(t, allowed)
}

func TestClientRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewKeyedLimiter(1, 2, time.Hour)
	t.Cleanup(limiter.Stop)

	router := gin.New()
	router.Use(ClientRateLimitMiddleware(limiter))
	router.GET("/api/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, get("192.0.2.10:4000").Code)
	assert.Equal(t, http.StatusOK, get("192.0.2.10:4001").Code)
	limited := get("192.0.2.10:4002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get("192.0.2.11:4000").Code)
	assert.Equal(t, 2, limiter.Len())
}

func TestKeyedLimiter_CleanupKeepsLockedKeys(t *testing.T) {
	limiter := NewKeyedLimiter(1, 1, time.Minute)
	t.Cleanup(limiter.Stop)

	limiter.Allow("idle")
	limiter.Allow("locked")
	limiter.mu.Lock()
	limiter.entries["locked"].lockedUntil = time.Now().Add(time.Hour)
	limiter.mu.Unlock()

	limiter.cleanup(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 1, limiter.Len())

	limiter.Stop()
	limiter.Stop()
}
