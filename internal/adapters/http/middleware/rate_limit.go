package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RateLimitConfig configures the fixed-window rate limiter. Buckets are
// kept in memory, so the limit applies per process.
type RateLimitConfig struct {
	// Limit is the number of requests per window.
	Limit int
	// Window is the counting interval.
	Window time.Duration
	// KeyFunc derives the bucket key; defaults to the client IP.
	KeyFunc func(*gin.Context) string
	// OnLimitReached runs before the 429 is written.
	OnLimitReached func(*gin.Context)
}

// DefaultRateLimitConfig allows 100 requests per minute per IP.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Limit:  100,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}

	go rl.evictStale()

	return rl
}

// allow reports whether the request fits the window, plus the remaining
// tokens and the time until the window resets.
func (rl *rateLimiter) allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	b, exists := rl.buckets[key]
	if !exists || now.Sub(b.lastReset) >= rl.window {
		rl.buckets[key] = &bucket{tokens: rl.limit - 1, lastReset: now}
		return true, rl.limit - 1, rl.window
	}

	resetIn := rl.window - now.Sub(b.lastReset)
	if b.tokens <= 0 {
		return false, 0, resetIn
	}

	b.tokens--
	return true, b.tokens, resetIn
}

// evictStale drops buckets idle for two full windows.
func (rl *rateLimiter) evictStale() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, b := range rl.buckets {
			if now.Sub(b.lastReset) > rl.window*2 {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects requests above the configured rate with a 429 and
// sets the X-RateLimit-* headers on every response.
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	limiter := newRateLimiter(config.Limit, config.Window)

	return func(c *gin.Context) {
		allowed, remaining, resetIn := limiter.allow(config.KeyFunc(c))

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10))

		if allowed {
			c.Next()
			return
		}

		retrySeconds := int(resetIn.Seconds())
		if retrySeconds < 1 {
			retrySeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retrySeconds))

		if config.OnLimitReached != nil {
			config.OnLimitReached(c)
		}

		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error": gin.H{
				"code":        "TOO_MANY_REQUESTS",
				"message":     "Rate limit exceeded, please try again later",
				"retry_after": retrySeconds,
			},
			"request_id": GetRequestID(c),
			"timestamp":  time.Now().UTC(),
		})
	}
}

// FinancialOpsRateLimit throttles the money-moving endpoints, keyed by
// user when authenticated and by IP otherwise.
func FinancialOpsRateLimit(limit int) gin.HandlerFunc {
	if limit <= 0 {
		limit = 30
	}
	return RateLimit(&RateLimitConfig{
		Limit:  limit,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			if userID := GetAuthUserID(c); userID != uuid.Nil {
				return "user:" + userID.String()
			}
			return "ip:" + c.ClientIP()
		},
	})
}
