package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc groups requests into buckets; defaults to client IP.
	KeyFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   100,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

// AuthRateLimitConfig returns stricter limits for auth endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   10,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

// SearchRateLimitConfig returns limits for the OpenLibrary proxy endpoints,
// which fan out to an external API per request.
func SearchRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   60,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// tokenBucket refills continuously at limit/window.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(maxTokens, refillRate float64) *tokenBucket {
	return &tokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// retryAfter returns seconds to wait before the next request can pass.
func (tb *tokenBucket) retryAfter() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.tokens < 1 {
		timeToToken := (1 - tb.tokens) / tb.refillRate
		return int(timeToToken) + 1
	}
	return 0
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// rateLimiter keeps one token bucket per key.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	config  RateLimitConfig
}

// NewRateLimiter creates a rate limiting middleware from config.
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = clientIPKey
	}
	rl := &rateLimiter{
		buckets: make(map[string]*tokenBucket),
		config:  config,
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		bucket := rl.bucket(key)
		if !bucket.allow() {
			retryAfter := bucket.retryAfter()
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()
	}
}

func (rl *rateLimiter) bucket(key string) *tokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, exists := rl.buckets[key]
	if !exists {
		refillRate := float64(rl.config.Limit) / rl.config.Window.Seconds()
		bucket = newTokenBucket(float64(rl.config.Limit), refillRate)
		rl.buckets[key] = bucket
	}
	return bucket
}

// RateLimit returns a middleware with default configuration
func RateLimit() gin.HandlerFunc {
	return NewRateLimiter(DefaultRateLimitConfig())
}

// RateLimitAuth returns a middleware for auth endpoints
func RateLimitAuth() gin.HandlerFunc {
	return NewRateLimiter(AuthRateLimitConfig())
}

// RateLimitSearch returns a middleware for the book proxy endpoints
func RateLimitSearch() gin.HandlerFunc {
	return NewRateLimiter(SearchRateLimitConfig())
}
