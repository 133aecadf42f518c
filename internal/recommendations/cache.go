package recommendations

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/openbook/backend/internal/cache"
	"github.com/openbook/backend/internal/logger"
	"github.com/openbook/backend/internal/metrics"
	"go.uber.org/zap"
)

// CacheEntry is one user's computed recommendation list. An entry older
// than the TTL is treated as absent.
type CacheEntry struct {
	Items      []ScoredCandidate `json:"items"`
	ComputedAt time.Time         `json:"computed_at"`
}

// Cache is the time-bounded memoization layer in front of the engine, keyed
// by user. Implementations absorb their own failures; a broken cache
// behaves like an empty one.
type Cache interface {
	Get(ctx context.Context, userID string) (*CacheEntry, bool)
	Set(ctx context.Context, userID string, entry CacheEntry)
	Del(ctx context.Context, userID string)
}

// MemoryCache is the single-instance cache: a mutex-guarded map with lazy
// expiry.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]CacheEntry

	// now is replaceable in tests to exercise TTL expiry.
	now func() time.Time
}

// NewMemoryCache creates an in-memory cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]CacheEntry),
		now:     time.Now,
	}
}

// Get returns the user's entry if present and fresh.
func (c *MemoryCache) Get(ctx context.Context, userID string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		metrics.RecordCacheMiss("memory")
		return nil, false
	}
	if c.now().Sub(entry.ComputedAt) >= c.ttl {
		delete(c.entries, userID)
		metrics.RecordCacheMiss("memory")
		return nil, false
	}
	metrics.RecordCacheHit("memory")
	return &entry, true
}

// Set stores the user's entry.
func (c *MemoryCache) Set(ctx context.Context, userID string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = entry
}

// Del removes the user's entry. Idempotent.
func (c *MemoryCache) Del(ctx context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// RedisCache shares the recommendation cache across server instances.
// Expiry rides on the Redis key TTL; ComputedAt is double-checked so a
// clock-skewed entry is never served stale.
type RedisCache struct {
	client *cache.RedisClient
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache with the given TTL.
func NewRedisCache(client *cache.RedisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(userID string) string {
	return "recommendations:user:" + userID
}

// Get returns the user's entry if present and fresh. Redis failures count
// as misses.
func (c *RedisCache) Get(ctx context.Context, userID string) (*CacheEntry, bool) {
	raw, err := c.client.Get(ctx, redisKey(userID))
	if err != nil {
		if !cache.IsMiss(err) {
			logger.Warn("Recommendation cache read failed", logger.WithUserID(userID), zap.Error(err))
		}
		metrics.RecordCacheMiss("redis")
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		logger.Warn("Recommendation cache entry corrupt, dropping", logger.WithUserID(userID), zap.Error(err))
		c.Del(ctx, userID)
		metrics.RecordCacheMiss("redis")
		return nil, false
	}
	if time.Since(entry.ComputedAt) >= c.ttl {
		metrics.RecordCacheMiss("redis")
		return nil, false
	}
	metrics.RecordCacheHit("redis")
	return &entry, true
}

// Set stores the user's entry with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, userID string, entry CacheEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		logger.Warn("Failed to marshal recommendation cache entry", logger.WithUserID(userID), zap.Error(err))
		return
	}
	if err := c.client.SetEx(ctx, redisKey(userID), raw, c.ttl); err != nil {
		logger.Warn("Recommendation cache write failed", logger.WithUserID(userID), zap.Error(err))
	}
}

// Del removes the user's entry. Idempotent.
func (c *RedisCache) Del(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, redisKey(userID)); err != nil {
		logger.Warn("Recommendation cache delete failed", logger.WithUserID(userID), zap.Error(err))
	}
}
