package stores

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/provision/internal"
)

type carrierShard struct {
	mu     sync.Mutex
	values map[string][]byte
}

// MemoryCarrier is a striped in-process Carrier.
type MemoryCarrier struct {
	now    func() time.Time
	shards [internal.ShardCount]carrierShard
}

// NewMemoryCarrier creates a memory carrier. now may be nil.
func NewMemoryCarrier(now func() time.Time) *MemoryCarrier {
	if now == nil {
		now = time.Now
	}
	c := &MemoryCarrier{now: now}
	for i := range c.shards {
		c.shards[i].values = make(map[string][]byte)
	}
	return c
}

func (c *MemoryCarrier) shard(key string) *carrierShard {
	return &c.shards[internal.ShardIndex(key)]
}

func (c *MemoryCarrier) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	sealed := sealEnvelope(value, c.now().Add(ttl))
	sh := c.shard(key)
	sh.mu.Lock()
	sh.values[key] = sealed
	sh.mu.Unlock()
	return nil
}

func (c *MemoryCarrier) Get(_ context.Context, key string) ([]byte, bool, error) {
	sh := c.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	raw, ok := sh.values[key]
	if !ok {
		return nil, false, nil
	}
	value, live := openEnvelope(raw, c.now())
	if !live {
		delete(sh.values, key)
		return nil, false, nil
	}
	return value, true, nil
}

func (c *MemoryCarrier) ClearAll(_ context.Context, keys ...string) error {
	for _, key := range keys {
		sh := c.shard(key)
		sh.mu.Lock()
		delete(sh.values, key)
		sh.mu.Unlock()
	}
	return nil
}

// Sweep removes expired values and returns the count.
func (c *MemoryCarrier) Sweep() int {
	now := c.now()
	removed := 0
	for i := range c.shards {
		sh := &c.shards[i]
		sh.mu.Lock()
		for key, raw := range sh.values {
			if _, live := openEnvelope(raw, now); !live {
				delete(sh.values, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}
