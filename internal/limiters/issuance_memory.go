package limiters

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/provision/internal"
)

type issuanceShard struct {
	mu      sync.Mutex
	records map[string]issuanceRecord
}

// MemoryIssuanceLimiter keeps records in process memory. A restart resets
// throttling.
type MemoryIssuanceLimiter struct {
	config IssuanceConfig
	now    func() time.Time
	shards [internal.ShardCount]issuanceShard
}

// NewMemoryIssuanceLimiter creates an in-memory limiter. now may be nil.
func NewMemoryIssuanceLimiter(cfg IssuanceConfig, now func() time.Time) *MemoryIssuanceLimiter {
	if now == nil {
		now = time.Now
	}
	l := &MemoryIssuanceLimiter{config: cfg, now: now}
	for i := range l.shards {
		l.shards[i].records = make(map[string]issuanceRecord)
	}
	return l
}

// Admit checks and, on admission, records an issuance for identifier.
func (l *MemoryIssuanceLimiter) Admit(_ context.Context, identifier string) (Decision, error) {
	shard := &l.shards[internal.ShardIndex(identifier)]
	now := l.now()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	rec, ok := shard.records[identifier]
	next, decision := decide(rec, ok, now, l.config)
	if decision.Allowed {
		shard.records[identifier] = next
	}
	return decision, nil
}

// Prune drops records that can no longer influence a decision.
func (l *MemoryIssuanceLimiter) Prune() int {
	now := l.now()
	removed := 0
	for i := range l.shards {
		shard := &l.shards[i]
		shard.mu.Lock()
		for id, rec := range shard.records {
			if now.Sub(rec.windowStart) > l.config.Window && now.Sub(rec.lastAttempt) >= l.config.Cooldown {
				delete(shard.records, id)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}
