// Package cache stores serialized AI enrichment results in Redis, keyed by
// request fingerprint.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/telemetry"
)

const (
	// DefaultTTL is applied when Set is called with a non-positive ttl.
	DefaultTTL = 24 * time.Hour
	// keyPrefix namespaces cache entries in a shared Redis.
	keyPrefix = "trends:ai:"
)

// ResponseCache is a fail-open cache. Store errors are logged and read as a
// miss or a no-op, never returned. A nil *ResponseCache always misses.
type ResponseCache struct {
	client  *redis.Client
	log     logger.Logger
	metrics *telemetry.Provider
}

// New returns a cache over client. A nil client yields a cache that always
// misses.
func New(client *redis.Client, log logger.Logger, metrics *telemetry.Provider) *ResponseCache {
	if log == nil {
		log = logger.NewNop()
	}
	return &ResponseCache{
		client:  client,
		log:     log.With(logger.Component("response-cache")),
		metrics: metrics,
	}
}

// Get returns the stored value and whether it was found.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.metrics.RecordCacheLookup("miss")
		return nil, false
	case err != nil:
		c.metrics.RecordCacheLookup("error")
		c.log.Warn("Cache read failed, treating as miss", logger.String("key", key), logger.Error(err))
		return nil, false
	}

	c.metrics.RecordCacheLookup("hit")
	return data, true
}

// Set stores value under key for ttl, or DefaultTTL when ttl is not positive.
func (c *ResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// Enabled reports whether the cache is backed by a store.
func (c *ResponseCache) Enabled() bool {
	return c != nil && c.client != nil
}
