package limiters

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// admitIssuanceLua mirrors decide() atomically.
// KEYS[1] = record hash
// ARGV[1] = now (unix ms)
// ARGV[2] = window (ms)
// ARGV[3] = max attempts
// ARGV[4] = cooldown (ms)
//
// Returns {allowed(0|1), retryAfterMs}.
var admitIssuanceLua = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local maxAttempts = tonumber(ARGV[3])
local cooldown = tonumber(ARGV[4])

local rec = redis.call('HMGET', KEYS[1], 'count', 'ws', 'last')
local count = tonumber(rec[1])
local ws = tonumber(rec[2])
local last = tonumber(rec[3])

if count == nil or ws == nil or last == nil or (now - ws) > window then
  redis.call('HSET', KEYS[1], 'count', 1, 'ws', ARGV[1], 'last', ARGV[1])
  redis.call('PEXPIRE', KEYS[1], window + cooldown)
  return {1, 0}
end

local wait = 0
if (now - last) < cooldown then
  wait = cooldown - (now - last)
end
if count >= maxAttempts then
  local w = window - (now - ws)
  if w < 1 then
    w = 1
  end
  if w > wait then
    wait = w
  end
end
if wait > 0 then
  return {0, wait}
end

redis.call('HSET', KEYS[1], 'count', count + 1, 'last', ARGV[1])
redis.call('PEXPIRE', KEYS[1], window + cooldown)
return {1, 0}
`)

// RedisIssuanceLimiter shares throttling state across service instances.
type RedisIssuanceLimiter struct {
	redis  redis.UniversalClient
	prefix string
	config IssuanceConfig
	now    func() time.Time
}

// NewRedisIssuanceLimiter creates a Redis-backed limiter. now may be nil.
func NewRedisIssuanceLimiter(client redis.UniversalClient, prefix string, cfg IssuanceConfig, now func() time.Time) *RedisIssuanceLimiter {
	if prefix == "" {
		prefix = "prv"
	}
	if now == nil {
		now = time.Now
	}
	return &RedisIssuanceLimiter{
		redis:  client,
		prefix: prefix,
		config: cfg,
		now:    now,
	}
}

func (l *RedisIssuanceLimiter) key(identifier string) string {
	return l.prefix + ":rl:" + identifier
}

// Admit checks and, on admission, records an issuance for identifier.
func (l *RedisIssuanceLimiter) Admit(ctx context.Context, identifier string) (Decision, error) {
	res, err := admitIssuanceLua.Run(ctx, l.redis,
		[]string{l.key(identifier)},
		l.now().UnixMilli(),
		l.config.Window.Milliseconds(),
		l.config.MaxAttempts,
		l.config.Cooldown.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("%w: unexpected script result", ErrLimiterUnavailable)
	}

	if res[0] == 1 {
		return Decision{Allowed: true}, nil
	}
	return Decision{Allowed: false, RetryAfter: time.Duration(res[1]) * time.Millisecond}, nil
}
