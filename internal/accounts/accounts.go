// Package accounts persists the durable account document written when a
// registration completes. Documents are keyed by email.
package accounts

import (
	"context"
	"errors"
	"time"
)

const (
	// StepCompleted is the registrationStep value of a finished account.
	StepCompleted = "completed"
)

var (
	ErrNotFound    = errors.New("account not found")
	ErrExists      = errors.New("account already exists")
	ErrUnavailable = errors.New("account store unavailable")
)

// Account is the durable account document.
type Account struct {
	Email              string    `json:"email"`
	PasswordHash       string    `json:"passwordHash"`
	WalletTag          string    `json:"walletTag"`
	SeedPhraseVerified bool      `json:"seedPhraseVerified"`
	RegistrationStep   string    `json:"registrationStep"`
	CreatedAt          time.Time `json:"createdAt"`
	LastLogin          time.Time `json:"lastLogin"`
}

// Store reads and writes account documents.
type Store interface {
	Get(ctx context.Context, email string) (Account, error)
	// Create writes acct only if no document exists for its email.
	Create(ctx context.Context, acct Account) error
	// TouchLogin updates only LastLogin.
	TouchLogin(ctx context.Context, email string, at time.Time) error
}
