package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheKeyPrefix is the wire key namespace shared by every instance of the
// service, so invalidation from one node is visible to all.
const cacheKeyPrefix = "tenant:slack:"

// CacheKey returns the Redis key for a workspace ID.
func CacheKey(workspaceID string) string { return cacheKeyPrefix + workspaceID }

// DefaultCacheOpTimeout bounds each Redis round trip. The cache must stay
// cheap relative to the store query it is saving.
const DefaultCacheOpTimeout = 50 * time.Millisecond

// RedisCache is a Cache backed by a shared Redis server. Values are JSON
// snapshots of the Tenant. Any transport failure degrades to a miss and is
// logged at warn level; the caller proceeds against the store.
type RedisCache struct {
	client    redis.UniversalClient
	opTimeout time.Duration
	log       *slog.Logger
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithOpTimeout bounds individual cache operations.
func WithOpTimeout(d time.Duration) RedisCacheOption {
	return func(c *RedisCache) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// WithCacheLogger sets the logger for degradation warnings.
func WithCacheLogger(log *slog.Logger) RedisCacheOption {
	return func(c *RedisCache) {
		if log != nil {
			c.log = log
		}
	}
}

// NewRedisCache creates a Cache on top of an established Redis client.
func NewRedisCache(client redis.UniversalClient, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		client:    client,
		opTimeout: DefaultCacheOpTimeout,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, CacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "tenant cache read failed, treating as miss",
				"key", key, "error", err)
		}
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		// An undecodable entry is poison; drop it so it cannot keep failing.
		c.log.WarnContext(ctx, "tenant cache entry undecodable, evicting",
			"key", key, "error", err)
		c.client.Del(ctx, CacheKey(key))
		return nil, false
	}
	return &t, true
}

func (c *RedisCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	raw, err := json.Marshal(t)
	if err != nil {
		c.log.WarnContext(ctx, "tenant cache serialization failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, CacheKey(key), raw, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "tenant cache write failed", "key", key, "error", err)
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, CacheKey(key)).Err(); err != nil {
		// A failed invalidation self-heals within one TTL window, but it is
		// worth knowing about.
		c.log.WarnContext(ctx, "tenant cache invalidation failed", "key", key, "error", err)
	}
}

func (c *RedisCache) DeleteAll(ctx context.Context) {
	// A flush touches many keys, so it gets a larger budget than a single
	// round trip, but it stays bounded like every other cache operation.
	ctx, cancel := context.WithTimeout(ctx, 10*c.opTimeout)
	defer cancel()

	// Scan instead of KEYS: this runs against a shared Redis.
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.WarnContext(ctx, "tenant cache flush: delete failed",
				"key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.log.WarnContext(ctx, "tenant cache flush incomplete", "error", err)
	}
}

func (c *RedisCache) Close() error { return c.client.Close() }
