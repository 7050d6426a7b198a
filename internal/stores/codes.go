package stores

import (
	"context"
	"encoding/binary"
	"errors"
	"time"
)

const (
	codeRecordVersionV1 = 1
	codeRecordLen       = 1 + 2 + 8 + 32
)

var (
	ErrCodeNotFound         = errors.New("code not found")
	ErrCodeExpired          = errors.New("code expired")
	ErrCodeMismatch         = errors.New("code mismatch")
	ErrCodeAttemptsExceeded = errors.New("code attempts exceeded")
	ErrStoreUnavailable     = errors.New("code store unavailable")
)

// CodeStore holds at most one live code hash per identifier.
type CodeStore interface {
	// Put replaces any previous code for identifier.
	Put(ctx context.Context, identifier string, hash [32]byte, ttl time.Duration) error
	// Take consumes the code when provided matches. maxAttempts <= 0
	// disables the failed-attempt cap.
	Take(ctx context.Context, identifier string, provided [32]byte, maxAttempts int) error
	// Discard deletes the code only if it still holds hash.
	Discard(ctx context.Context, identifier string, hash [32]byte) error
}

type codeRecord struct {
	hash      [32]byte
	expiresAt int64 // unix ms
	attempts  uint16
}

func encodeCodeRecord(r codeRecord) []byte {
	buf := make([]byte, codeRecordLen)
	buf[0] = codeRecordVersionV1
	binary.BigEndian.PutUint16(buf[1:3], r.attempts)
	binary.BigEndian.PutUint64(buf[3:11], uint64(r.expiresAt))
	copy(buf[11:], r.hash[:])
	return buf
}

func decodeCodeRecord(b []byte) (codeRecord, error) {
	if len(b) != codeRecordLen || b[0] != codeRecordVersionV1 {
		return codeRecord{}, errors.New("malformed code record")
	}
	var r codeRecord
	r.attempts = binary.BigEndian.Uint16(b[1:3])
	r.expiresAt = int64(binary.BigEndian.Uint64(b[3:11]))
	copy(r.hash[:], b[11:])
	return r, nil
}
