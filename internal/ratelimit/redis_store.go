package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript starts the window on the first request, or repairs a key
// that lost its expiry, and reports the count and remaining ttl in ms.
var incrementScript = redis.NewScript(`
	local count = redis.call("INCR", KEYS[1])
	local ttl = redis.call("PTTL", KEYS[1])
	if count == 1 or ttl < 0 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {count, ttl}
`)

// RedisStore keeps window counters in Redis so limits hold across replicas.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Increment implements Store.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := incrementScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("increment %s: %w", key, err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("increment %s: unexpected script reply %v", key, res)
	}

	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
