package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc picks the identity a limit applies to.
type KeyFunc func(c *gin.Context) string

func ByIP(c *gin.Context) string { return c.ClientIP() }

// ByWallet keys on the JWT wallet, falling back to the client IP.
func ByWallet(c *gin.Context) string {
	if w, ok := Wallet(c); ok {
		return w
	}
	return c.ClientIP()
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is a per-key token bucket used when Redis is not configured.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	idle    time.Duration
}

// NewLocalLimiter allows max requests per window per key.
func NewLocalLimiter(max int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Every(window / time.Duration(max)),
		burst:   max,
		idle:    2 * window,
	}
}

func (l *LocalLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) > 10000 {
			l.sweep(now)
		}
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (l *LocalLimiter) sweep(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idle {
			delete(l.entries, k)
		}
	}
}

// RateLimit limits requests to max per window per key. With a connected
// RedisLimiter the window is shared across replicas; otherwise each process
// keeps its own buckets.
func RateLimit(rl *RedisLimiter, prefix string, max int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	if max <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	local := NewLocalLimiter(max, window)
	return func(c *gin.Context) {
		id := key(c)
		var allowed bool
		if rl.Enabled() {
			var err error
			allowed, err = rl.Allow(c.Request.Context(), prefix, id, max, window)
			if err != nil {
				c.Header("X-RateLimit-Error", "redis-error")
				allowed = local.Allow(prefix + ":" + id)
			}
		} else {
			allowed = local.Allow(prefix + ":" + id)
		}

		endpoint := prefix + ":" + c.FullPath()
		if !allowed {
			RLBlocked.WithLabelValues(endpoint).Inc()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(endpoint).Inc()
		c.Next()
	}
}
