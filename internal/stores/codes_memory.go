package stores

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/MrEthical07/provision/internal"
)

type codeShard struct {
	mu      sync.Mutex
	records map[string]codeRecord
}

// MemoryCodeStore is a striped in-process CodeStore.
type MemoryCodeStore struct {
	retention time.Duration
	now       func() time.Time
	shards    [internal.ShardCount]codeShard
}

// NewMemoryCodeStore creates a memory store. Expired records are kept for
// retention before Sweep removes them. now may be nil.
func NewMemoryCodeStore(retention time.Duration, now func() time.Time) *MemoryCodeStore {
	if now == nil {
		now = time.Now
	}
	s := &MemoryCodeStore{retention: retention, now: now}
	for i := range s.shards {
		s.shards[i].records = make(map[string]codeRecord)
	}
	return s
}

func (s *MemoryCodeStore) shard(identifier string) *codeShard {
	return &s.shards[internal.ShardIndex(identifier)]
}

func (s *MemoryCodeStore) Put(_ context.Context, identifier string, hash [32]byte, ttl time.Duration) error {
	sh := s.shard(identifier)
	rec := codeRecord{hash: hash, expiresAt: s.now().Add(ttl).UnixMilli()}

	sh.mu.Lock()
	sh.records[identifier] = rec
	sh.mu.Unlock()
	return nil
}

func (s *MemoryCodeStore) Take(_ context.Context, identifier string, provided [32]byte, maxAttempts int) error {
	sh := s.shard(identifier)
	now := s.now().UnixMilli()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[identifier]
	if !ok {
		return ErrCodeNotFound
	}
	if now >= rec.expiresAt {
		delete(sh.records, identifier)
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare(rec.hash[:], provided[:]) != 1 {
		rec.attempts++
		if maxAttempts > 0 && int(rec.attempts) >= maxAttempts {
			delete(sh.records, identifier)
			return ErrCodeAttemptsExceeded
		}
		sh.records[identifier] = rec
		return ErrCodeMismatch
	}

	delete(sh.records, identifier)
	return nil
}

func (s *MemoryCodeStore) Discard(_ context.Context, identifier string, hash [32]byte) error {
	sh := s.shard(identifier)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if rec, ok := sh.records[identifier]; ok && subtle.ConstantTimeCompare(rec.hash[:], hash[:]) == 1 {
		delete(sh.records, identifier)
	}
	return nil
}

// Sweep removes records whose retention has lapsed and returns the count.
func (s *MemoryCodeStore) Sweep() int {
	cutoff := s.now().Add(-s.retention).UnixMilli()
	removed := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for id, rec := range sh.records {
			if rec.expiresAt <= cutoff {
				delete(sh.records, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}
