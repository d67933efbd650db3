package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/linguahub/institute-api/pkg/errors"
	"github.com/linguahub/institute-api/pkg/response"
)

// RateLimiter is a fixed-window, in-process limiter keyed by client IP and
// route path. Counts reset at window boundaries; a burst straddling the
// boundary can briefly see up to double the limit, which is acceptable for
// abuse protection on messaging endpoints.
type RateLimiter struct {
	window time.Duration
	now    func() time.Time

	// OnLimited, when set, is called once per refused request.
	OnLimited func()

	mu      sync.Mutex
	buckets map[string]*windowCount
}

type windowCount struct {
	windowStart time.Time
	count       int
}

// NewRateLimiter constructs a limiter with the given window.
func NewRateLimiter(window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*windowCount),
	}
}

// Allow records one request for the key and reports whether it fits the
// limit. The second return is the wait until the window resets when refused.
func (l *RateLimiter) Allow(key string, limit int) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok || now.Sub(bucket.windowStart) >= l.window {
		l.buckets[key] = &windowCount{windowStart: now, count: 1}
		return true, 0
	}
	if bucket.count < limit {
		bucket.count++
		return true, 0
	}
	return false, bucket.windowStart.Add(l.window).Sub(now)
}

// Limit wraps a route with the limiter. Refused requests answer 429 with a
// Retry-After header.
func (l *RateLimiter) Limit(limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + "|" + c.FullPath()
		ok, retryAfter := l.Allow(key, limit)
		if !ok {
			if l.OnLimited != nil {
				l.OnLimited()
			}
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
