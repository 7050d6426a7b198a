package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/provision/internal"
	"github.com/MrEthical07/provision/internal/limiters"
	"github.com/MrEthical07/provision/internal/mail"
	"github.com/MrEthical07/provision/internal/stores"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable wraps limiter and store faults.
	ErrUnavailable = errors.New("otp backend unavailable")
)

// Deliverer is satisfied by *mail.Gateway.
type Deliverer interface {
	Deliver(ctx context.Context, msg mail.Message) (mail.Result, error)
}

// Config controls code shape, lifetime and the outgoing message.
type Config struct {
	TTL               time.Duration
	Digits            int
	MaxVerifyAttempts int
	Subject           string
	FromName          string
	FromAddress       string
}

// Service composes the limiter, code store and mail gateway.
type Service struct {
	config   Config
	limiter  limiters.IssuanceLimiter
	codes    stores.CodeStore
	delivery Deliverer
	logger   *zap.Logger

	// NewCode generates codes; replaced in tests.
	NewCode func(digits int) (string, error)
}

// NewService wires a Service. logger may be nil.
func NewService(cfg Config, limiter limiters.IssuanceLimiter, codes stores.CodeStore, delivery Deliverer, logger *zap.Logger) *Service {
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		config:   cfg,
		limiter:  limiter,
		codes:    codes,
		delivery: delivery,
		logger:   logger.Named("otp"),
		NewCode:  internal.NewNumericCode,
	}
}

func codeHash(identifier, code string) [32]byte {
	return internal.HashSecret(identifier + "\x00" + code)
}

// Issue generates, stores and delivers a fresh code for identifier. Any
// previous code for identifier stops verifying once the new one is stored.
func (s *Service) Issue(ctx context.Context, identifier string) (IssueOutcome, error) {
	decision, err := s.limiter.Admit(ctx, identifier)
	if err != nil {
		return IssueOutcome{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !decision.Allowed {
		return IssueOutcome{Status: IssueRateLimited, RetryAfter: decision.RetryAfter}, nil
	}

	code, err := s.NewCode(s.config.Digits)
	if err != nil {
		return IssueOutcome{}, err
	}
	hash := codeHash(identifier, code)
	if err := s.codes.Put(ctx, identifier, hash, s.config.TTL); err != nil {
		return IssueOutcome{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	msg, err := s.message(identifier, code)
	if err != nil {
		s.rollback(ctx, identifier, hash)
		return IssueOutcome{}, err
	}

	res, err := s.delivery.Deliver(ctx, msg)
	if err != nil {
		s.rollback(ctx, identifier, hash)
		return IssueOutcome{Status: IssueDeliveryFailed, Delivery: res, Reason: err.Error()}, nil
	}

	return IssueOutcome{Status: IssueOK, Delivery: res}, nil
}

// rollback removes the code only if no newer issuance replaced it.
func (s *Service) rollback(ctx context.Context, identifier string, hash [32]byte) {
	if err := s.codes.Discard(context.WithoutCancel(ctx), identifier, hash); err != nil {
		s.logger.Error("undelivered code rollback failed", zap.Error(err))
	}
}

func (s *Service) message(identifier, code string) (mail.Message, error) {
	minutes := int(s.config.TTL / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	text, html, err := render(bodyData{Code: code, Minutes: minutes, To: identifier})
	if err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		FromName:    s.config.FromName,
		FromAddress: s.config.FromAddress,
		To:          identifier,
		Subject:     s.config.Subject,
		Text:        text,
		HTML:        html,
	}, nil
}

// Verify consumes the code for identifier.
func (s *Service) Verify(ctx context.Context, identifier, code string) (VerifyStatus, error) {
	err := s.codes.Take(ctx, identifier, codeHash(identifier, code), s.config.MaxVerifyAttempts)
	switch {
	case err == nil:
		return VerifyOK, nil
	case errors.Is(err, stores.ErrCodeNotFound):
		return VerifyNotFound, nil
	case errors.Is(err, stores.ErrCodeExpired):
		return VerifyExpired, nil
	case errors.Is(err, stores.ErrCodeMismatch):
		return VerifyMismatch, nil
	case errors.Is(err, stores.ErrCodeAttemptsExceeded):
		return VerifyAttemptsExceeded, nil
	default:
		return VerifyNotFound, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
