package stores

import (
	"context"
	"encoding/binary"
	"errors"
	"time"
)

var (
	ErrCarrierUnavailable = errors.New("session carrier unavailable")
)

// Carrier is a generic expiring key/value facility. Every value carries
// its own absolute expiry; Get treats an expired value as absent and
// deletes it.
type Carrier interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	ClearAll(ctx context.Context, keys ...string) error
}

// envelope layout: expiresAt(8 big-endian ms) payload
func sealEnvelope(value []byte, expiresAt time.Time) []byte {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt.UnixMilli()))
	copy(buf[8:], value)
	return buf
}

func openEnvelope(b []byte, now time.Time) ([]byte, bool) {
	if len(b) < 8 {
		return nil, false
	}
	expiresAt := int64(binary.BigEndian.Uint64(b[:8]))
	if now.UnixMilli() >= expiresAt {
		return nil, false
	}
	out := make([]byte, len(b)-8)
	copy(out, b[8:])
	return out, true
}
