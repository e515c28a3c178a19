package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter counts hits of key inside a fixed window and returns the count
// including this hit
type Limiter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit blocks an identity that sends more than maxRequests per window.
// The identity is the authenticated user when JWT ran first, the client IP
// otherwise. Limiter errors fail open.
func RateLimit(l Limiter, scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		key := "rl:" + scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + identity(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		val, err := l.Hit(ctx, key, window)
		cancel()
		if err != nil {
			c.Header("X-RateLimit-Error", "limiter-error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(scope).Inc()
		c.Next()
	}
}

func identity(c *gin.Context) string {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(int64); ok {
			return "u" + strconv.FormatInt(id, 10)
		}
	}
	return c.ClientIP()
}

type window struct {
	start time.Time
	count int64
}

// MemoryLimiter is the single-process fallback when Redis is not configured
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), now: time.Now}
}

func (m *MemoryLimiter) Hit(_ context.Context, key string, d time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= d {
		m.windows[key] = &window{start: now, count: 1}
		return 1, nil
	}

	w.count++
	return w.count, nil
}

// Prune drops windows older than d
func (m *MemoryLimiter) Prune(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, w := range m.windows {
		if now.Sub(w.start) >= d {
			delete(m.windows, k)
		}
	}
}
