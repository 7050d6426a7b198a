package internal

import "hash/fnv"

// ShardCount is the number of lock stripes used by the in-memory stores.
const ShardCount = 32

// ShardIndex maps key onto one of ShardCount stripes.
func ShardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % ShardCount)
}
