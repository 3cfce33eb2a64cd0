package auth

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per key, such as a client IP.
// Buckets not seen for the idle period are evicted by a background loop.
type KeyedLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idle     time.Duration
	entries  map[string]*limiterEntry
	stop     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter     *rate.Limiter
	lastSeen    time.Time
	lockedUntil time.Time
}

// NewKeyedLimiter starts a limiter allowing limit events per second with the
// given burst for every key.
func NewKeyedLimiter(limit rate.Limit, burst int, idle time.Duration) *KeyedLimiter {
	if burst <= 0 {
		burst = 1
	}
	if idle <= 0 {
		idle = 3 * time.Minute
	}
	l := &KeyedLimiter{
		limit:   limit,
		burst:   burst,
		idle:    idle,
		entries: make(map[string]*limiterEntry),
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// entry must be called with mu held.
func (l *KeyedLimiter) entry(key string) *limiterEntry {
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e
}

// Allow consumes one token for key.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entry(key).limiter.Allow()
}

// Forget drops the bucket of key.
func (l *KeyedLimiter) Forget(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (l *KeyedLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stop:
			return
		}
	}
}

func (l *KeyedLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idle && now.After(e.lockedUntil) {
			delete(l.entries, key)
		}
	}
}

// RateLimiter throttles failed login attempts per IP+username. Each key
// gets MaxAttempts tokens refilled over WindowDuration; running out locks
// the key for LockoutDuration.
type RateLimiter struct {
	buckets         *KeyedLimiter
	refill          time.Duration
	lockoutDuration time.Duration
}

// RateLimitConfig contains configuration for the rate limiter.
type RateLimitConfig struct {
	MaxAttempts     int           // Maximum attempts before lockout (default: 5)
	WindowDuration  time.Duration // Time to refill every attempt (default: 15m)
	LockoutDuration time.Duration // How long to lock out after max attempts (default: 30m)
	CleanupInterval time.Duration // Idle time before a key is forgotten (default: 5m)
}

// DefaultRateLimitConfig returns the defaults used when config values are zero.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts:     5,
		WindowDuration:  15 * time.Minute,
		LockoutDuration: 30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewRateLimiter creates a new login rate limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	def := DefaultRateLimitConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = def.WindowDuration
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	refill := cfg.WindowDuration / time.Duration(cfg.MaxAttempts)
	return &RateLimiter{
		buckets:         NewKeyedLimiter(rate.Every(refill), cfg.MaxAttempts, cfg.CleanupInterval),
		refill:          refill,
		lockoutDuration: cfg.LockoutDuration,
	}
}

// Stop stops the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.buckets.Stop()
}

func makeKey(ip, username string) string {
	return ip + ":" + username
}

// Allow reports whether a login attempt may proceed without consuming a
// token. When refused, retryAfter is the time until the next attempt.
func (rl *RateLimiter) Allow(ip, username string) (bool, time.Duration) {
	now := time.Now()

	rl.buckets.mu.Lock()
	defer rl.buckets.mu.Unlock()

	e, exists := rl.buckets.entries[makeKey(ip, username)]
	if !exists {
		return true, 0
	}
	if now.Before(e.lockedUntil) {
		return false, e.lockedUntil.Sub(now)
	}
	if e.limiter.TokensAt(now) < 1 {
		return false, rl.refill
	}
	return true, 0
}

// RecordFailure consumes a token. Returns true and the lockout duration when
// this failure exhausted the bucket.
func (rl *RateLimiter) RecordFailure(ip, username string) (bool, time.Duration) {
	now := time.Now()

	rl.buckets.mu.Lock()
	defer rl.buckets.mu.Unlock()

	e := rl.buckets.entry(makeKey(ip, username))
	e.limiter.AllowN(now, 1)
	if e.limiter.TokensAt(now) < 1 {
		e.lockedUntil = now.Add(rl.lockoutDuration)
		return true, rl.lockoutDuration
	}
	return false, 0
}

// RecordSuccess clears the failure record for a successful login.
func (rl *RateLimiter) RecordSuccess(ip, username string) {
	rl.buckets.Forget(makeKey(ip, username))
}

// ClientRateLimitMiddleware limits requests per client IP.
func ClientRateLimitMiddleware(l *KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
