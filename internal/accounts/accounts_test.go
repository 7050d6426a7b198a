package accounts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(rdb, "t"),
	}
}

func sampleAccount() Account {
	created := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	return Account{
		Email:              "new.student@isu.ac.in",
		PasswordHash:       "$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA",
		WalletTag:          "0123456789ABCDEF",
		SeedPhraseVerified: true,
		RegistrationStep:   StepCompleted,
		CreatedAt:          created,
		LastLogin:          created,
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		want := sampleAccount()
		if err := s.Create(ctx, want); err != nil {
			t.Fatalf("%s: create: %v", name, err)
		}
		got, err := s.Get(ctx, want.Email)
		if err != nil {
			t.Fatalf("%s: get: %v", name, err)
		}
		if got.Email != want.Email || got.RegistrationStep != StepCompleted || !got.SeedPhraseVerified || !got.CreatedAt.Equal(want.CreatedAt) {
			t.Fatalf("%s: unexpected document %+v", name, got)
		}
	}
}

func TestGetMissing(t *testing.T) {
	for name, s := range backends(t) {
		if _, err := s.Get(context.Background(), "nobody@isu.ac.in"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestCreateIsExclusive(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.Create(ctx, sampleAccount()) == nil {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		if wins != 1 {
			t.Fatalf("%s: expected exactly one create to win, got %d", name, wins)
		}
		if err := s.Create(ctx, sampleAccount()); !errors.Is(err, ErrExists) {
			t.Fatalf("%s: expected ErrExists, got %v", name, err)
		}
	}
}

func TestTouchLoginUpdatesOnlyLastLogin(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		acct := sampleAccount()
		_ = s.Create(ctx, acct)
		later := acct.CreatedAt.Add(48 * time.Hour)
		if err := s.TouchLogin(ctx, acct.Email, later); err != nil {
			t.Fatalf("%s: touch: %v", name, err)
		}
		got, _ := s.Get(ctx, acct.Email)
		if !got.LastLogin.Equal(later) {
			t.Fatalf("%s: lastLogin not updated: %v", name, got.LastLogin)
		}
		if !got.CreatedAt.Equal(acct.CreatedAt) || got.PasswordHash != acct.PasswordHash || got.WalletTag != acct.WalletTag {
			t.Fatalf("%s: other fields changed: %+v", name, got)
		}
	}
}

func TestTouchLoginMissing(t *testing.T) {
	for name, s := range backends(t) {
		if err := s.TouchLogin(context.Background(), "nobody@isu.ac.in", time.Now()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}
