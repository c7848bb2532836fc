package cache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tair/product-catalog/pkg/logger"
)

// Gateway is a best-effort key/value cache. Implementations never surface backing-store
// failures: a failed Get is a miss and failed writes are logged and dropped.
type Gateway interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Remove(ctx context.Context, keys ...string)
	RemovePattern(ctx context.Context, pattern string)
}

var (
	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_requests_total",
			Help: "Cache lookups by result",
		},
		[]string{"result"},
	)

	cacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_errors_total",
			Help: "Cache backend failures by operation",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(cacheRequests)
	prometheus.MustRegister(cacheErrors)
}

// RedisCache implements Gateway on top of go-redis
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache creates a new redis backed cache gateway
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cacheErrors.WithLabelValues("get").Inc()
			logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Cache read failed, treating as miss")
		}
		cacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}

	cacheRequests.WithLabelValues("hit").Inc()
	logger.Debug(ctx).Str("cache_key", key).Msg("Cache hit")
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Failed to cache value")
		return
	}

	logger.Debug(ctx).
		Str("cache_key", key).
		Dur("ttl", ttl).
		Int("size", len(value)).
		Msg("Value cached")
}

func (c *RedisCache) Remove(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		cacheErrors.WithLabelValues("remove").Inc()
		logger.Warn(ctx).Err(err).Strs("cache_keys", keys).Msg("Failed to invalidate cache keys")
	}
}

// RemovePattern deletes every key matching a glob pattern using SCAN
func (c *RedisCache) RemovePattern(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		cacheErrors.WithLabelValues("scan").Inc()
		logger.Warn(ctx).Err(err).Str("pattern", pattern).Msg("Failed to scan cache keys")
		return
	}

	if len(keys) > 0 {
		c.Remove(ctx, keys...)
		logger.Debug(ctx).
			Int("count", len(keys)).
			Str("pattern", pattern).
			Msg("Cache invalidated")
	}
}

// Nop is a Gateway that caches nothing, used when redis is unavailable
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Nop) Set(context.Context, string, []byte, time.Duration) {}

func (Nop) Remove(context.Context, ...string) {}

func (Nop) RemovePattern(context.Context, string) {}
