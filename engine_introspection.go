package provision

import (
	"context"
	"time"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	Backend        string        `json:"backend"`
	RedisAvailable bool          `json:"redisAvailable"`
	RedisLatency   time.Duration `json:"redisLatency"`
}

// Health pings Redis when the engine is Redis-backed. In-memory engines
// always report available.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil {
		return HealthStatus{}
	}
	if e.redis == nil {
		return HealthStatus{Backend: "memory", RedisAvailable: true}
	}

	start := time.Now()
	err := e.redis.Ping(ctx).Err()
	return HealthStatus{
		Backend:        "redis",
		RedisAvailable: err == nil,
		RedisLatency:   time.Since(start),
	}
}

// PendingRegistration reports whether the session behind ticket is still
// held by the carrier, without touching its expiry.
func (e *Engine) PendingRegistration(ctx context.Context, ticket string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	sid := e.sessionID(ticket)
	if sid == "" {
		return false, nil
	}
	_, ok, err := e.loadSession(ctx, sid)
	if err != nil {
		return false, newError(ErrUnavailable, "", 0, err)
	}
	return ok, nil
}
