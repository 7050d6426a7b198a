package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeCodeLua atomically performs GET→validate→DEL/SET on a code record.
// KEYS[1] = record key
// ARGV[1] = provided hash (32 bytes)
// ARGV[2] = current unix ms
// ARGV[3] = max attempts (0 = unlimited)
//
// Layout: version(1) attempts(2 big-endian) expiresAt(8 big-endian ms) hash(32)
//
// Returns "ok" or an error string: "not_found", "expired", "mismatch",
// "attempts_exceeded".
var takeCodeLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local now = tonumber(ARGV[2])
local maxAttempts = tonumber(ARGV[3])

if string.len(data) ~= 43 or string.byte(data, 1) ~= 1 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local attempts = string.byte(data, 2) * 256 + string.byte(data, 3)

local expiresAt = 0
for i = 4, 11 do
  expiresAt = expiresAt * 256 + string.byte(data, i)
end

if now >= expiresAt then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end

if string.sub(data, 12, 43) ~= ARGV[1] then
  attempts = attempts + 1
  if maxAttempts > 0 and attempts >= maxAttempts then
    redis.call('DEL', KEYS[1])
    return {err='attempts_exceeded'}
  end
  local ttlMs = redis.call('PTTL', KEYS[1])
  if ttlMs <= 0 then
    redis.call('DEL', KEYS[1])
    return {err='expired'}
  end
  local newData = string.sub(data, 1, 1) .. string.char(math.floor(attempts / 256), attempts % 256) .. string.sub(data, 4)
  redis.call('SET', KEYS[1], newData, 'PX', ttlMs)
  return {err='mismatch'}
end

redis.call('DEL', KEYS[1])
return 'ok'
`)

// discardCodeLua deletes the record only when it still carries ARGV[1].
var discardCodeLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return 0
end
if string.sub(data, 12, 43) == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// RedisCodeStore shares codes across service instances.
type RedisCodeStore struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewRedisCodeStore creates a Redis-backed code store. now may be nil.
func NewRedisCodeStore(client redis.UniversalClient, prefix string, retention time.Duration, now func() time.Time) *RedisCodeStore {
	if prefix == "" {
		prefix = "prv"
	}
	if now == nil {
		now = time.Now
	}
	return &RedisCodeStore{
		redis:     client,
		prefix:    prefix,
		retention: retention,
		now:       now,
	}
}

func (s *RedisCodeStore) key(identifier string) string {
	return s.prefix + ":otp:" + identifier
}

func (s *RedisCodeStore) Put(ctx context.Context, identifier string, hash [32]byte, ttl time.Duration) error {
	rec := codeRecord{hash: hash, expiresAt: s.now().Add(ttl).UnixMilli()}
	if err := s.redis.Set(ctx, s.key(identifier), encodeCodeRecord(rec), ttl+s.retention).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisCodeStore) Take(ctx context.Context, identifier string, provided [32]byte, maxAttempts int) error {
	err := takeCodeLua.Run(ctx, s.redis,
		[]string{s.key(identifier)},
		string(provided[:]),
		s.now().UnixMilli(),
		maxAttempts,
	).Err()
	if err == nil {
		return nil
	}

	switch err.Error() {
	case "not_found":
		return ErrCodeNotFound
	case "expired":
		return ErrCodeExpired
	case "mismatch":
		return ErrCodeMismatch
	case "attempts_exceeded":
		return ErrCodeAttemptsExceeded
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func (s *RedisCodeStore) Discard(ctx context.Context, identifier string, hash [32]byte) error {
	if err := discardCodeLua.Run(ctx, s.redis, []string{s.key(identifier)}, string(hash[:])).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
