package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/provision/internal/accounts"
)

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.advanceToPhraseVerified(t, "member@isu.ac.in")
	if _, err := h.svc.FinalizeRegistration(ctx, sid); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if _, err := h.svc.Login(ctx, "member@isu.ac.in", "Wrong@2025x"); !errors.Is(err, errCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := h.svc.Login(ctx, "ghost@isu.ac.in", goodPassword); !errors.Is(err, errCredentials) {
		t.Fatalf("unknown email: %v", err)
	}
	if _, err := h.svc.Login(ctx, "member@isu.ac.in", ""); !errors.Is(err, errValidation) {
		t.Fatalf("empty password: %v", err)
	}
	if h.count(mLoginFail) != 2 {
		t.Fatalf("expected 2 failures, got %d", h.count(mLoginFail))
	}
}

func TestLoginIncompleteAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	hash, err := h.hasher.Hash(goodPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := h.accounts.Create(ctx, accounts.Account{
		Email:            "half@isu.ac.in",
		PasswordHash:     hash,
		RegistrationStep: string(StepPasswordSet),
		CreatedAt:        h.clock.Now(),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := h.svc.Login(ctx, "half@isu.ac.in", goodPassword); !errors.Is(err, errIncomplete) {
		t.Fatalf("expected incomplete, got %v", err)
	}
}

func TestLoginTouchesOnlyLastLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.advanceToPhraseVerified(t, "touch@isu.ac.in")
	created, err := h.svc.FinalizeRegistration(ctx, sid)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	h.clock.Advance(48 * time.Hour)
	if _, err := h.svc.Login(ctx, "TOUCH@isu.ac.in", goodPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	stored, err := h.accounts.Get(ctx, "touch@isu.ac.in")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.CreatedAt.Equal(created.CreatedAt) || stored.WalletTag != created.WalletTag {
		t.Fatalf("login must not rewrite other fields")
	}
	if !stored.LastLogin.Equal(h.clock.Now()) {
		t.Fatalf("lastLogin = %v, want %v", stored.LastLogin, h.clock.Now())
	}
}
