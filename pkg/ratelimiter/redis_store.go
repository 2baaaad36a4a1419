package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces counter keys in Redis.
const DefaultRedisPrefix = "rl:"

// incrementScript increments a fixed-window counter and returns {count, pttl}.
// The TTL is set on the first hit and repaired if it was ever lost.
var incrementScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore implements Store with Redis counters shared across instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		rs.prefix = prefix
	}
}

// WithRedisClock sets the time source used to compute reset times.
func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(rs *RedisStore) {
		if now != nil {
			rs.now = now
		}
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	rs := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Increment implements Store.
func (rs *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Counter, error) {
	ms := window.Milliseconds()
	if ms <= 0 {
		return Counter{}, fmt.Errorf("%w: window must be at least 1ms", ErrInvalidConfig)
	}

	vals, err := incrementScript.Run(ctx, rs.client, []string{rs.prefix + key}, ms).Int64Slice()
	if err != nil {
		return Counter{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if len(vals) != 2 {
		return Counter{}, fmt.Errorf("%w: unexpected script reply of %d values", ErrStoreUnavailable, len(vals))
	}

	return Counter{
		Count:   int(vals[0]),
		ResetAt: rs.now().Add(time.Duration(vals[1]) * time.Millisecond),
	}, nil
}

// Get implements Store.
func (rs *RedisStore) Get(ctx context.Context, key string) (Counter, bool, error) {
	k := rs.prefix + key

	pipe := rs.client.Pipeline()
	getCmd := pipe.Get(ctx, k)
	ttlCmd := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Counter{}, false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	count, err := getCmd.Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Counter{}, false, nil
		}
		return Counter{}, false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return Counter{}, false, nil
	}

	return Counter{Count: count, ResetAt: rs.now().Add(ttl)}, true, nil
}

// Reset implements Store.
func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Healthcheck pings Redis.
func (rs *RedisStore) Healthcheck(ctx context.Context) error {
	if err := rs.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
