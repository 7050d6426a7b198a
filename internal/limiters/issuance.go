package limiters

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrLimiterUnavailable is returned when the backing store cannot be reached.
	ErrLimiterUnavailable = errors.New("issuance limiter unavailable")
)

// IssuanceConfig holds the window/cooldown policy.
type IssuanceConfig struct {
	Window      time.Duration
	MaxAttempts int
	Cooldown    time.Duration
}

// Decision is the result of one admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds the wait up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed || d.RetryAfter <= 0 {
		return 0
	}
	return int((d.RetryAfter + time.Second - 1) / time.Second)
}

// IssuanceLimiter admits or rejects code issuance per identifier.
type IssuanceLimiter interface {
	Admit(ctx context.Context, identifier string) (Decision, error)
}

type issuanceRecord struct {
	count       int
	windowStart time.Time
	lastAttempt time.Time
}

// decide applies the policy to rec. The returned record is what must be
// stored when the decision is an admission.
func decide(rec issuanceRecord, exists bool, now time.Time, cfg IssuanceConfig) (issuanceRecord, Decision) {
	if !exists || now.Sub(rec.windowStart) > cfg.Window {
		return issuanceRecord{count: 1, windowStart: now, lastAttempt: now}, Decision{Allowed: true}
	}

	var wait time.Duration
	if since := now.Sub(rec.lastAttempt); since < cfg.Cooldown {
		wait = cfg.Cooldown - since
	}
	if rec.count >= cfg.MaxAttempts {
		windowWait := cfg.Window - now.Sub(rec.windowStart)
		if windowWait < time.Millisecond {
			windowWait = time.Millisecond
		}
		if windowWait > wait {
			wait = windowWait
		}
	}
	if wait > 0 {
		return rec, Decision{Allowed: false, RetryAfter: wait}
	}

	rec.count++
	rec.lastAttempt = now
	return rec, Decision{Allowed: true}
}
