package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCarrier stores sealed values with a matching PX so Redis evicts
// them even if nothing reads them again.
type RedisCarrier struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisCarrier creates a Redis-backed carrier. now may be nil.
func NewRedisCarrier(client redis.UniversalClient, prefix string, now func() time.Time) *RedisCarrier {
	if prefix == "" {
		prefix = "prv"
	}
	if now == nil {
		now = time.Now
	}
	return &RedisCarrier{redis: client, prefix: prefix, now: now}
}

func (c *RedisCarrier) key(key string) string {
	return c.prefix + ":sess:" + key
}

func (c *RedisCarrier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	sealed := sealEnvelope(value, c.now().Add(ttl))
	if err := c.redis.Set(ctx, c.key(key), sealed, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCarrierUnavailable, err)
	}
	return nil
}

func (c *RedisCarrier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.redis.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCarrierUnavailable, err)
	}

	value, live := openEnvelope(raw, c.now())
	if !live {
		if err := c.redis.Del(ctx, c.key(key)).Err(); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrCarrierUnavailable, err)
		}
		return nil, false, nil
	}
	return value, true, nil
}

// ClearAll removes keys in one DEL. On Redis Cluster the keys must share
// a hash slot.
func (c *RedisCarrier) ClearAll(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = c.key(key)
	}
	if err := c.redis.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCarrierUnavailable, err)
	}
	return nil
}
