package provision

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MrEthical07/provision/internal/accounts"
	"github.com/MrEthical07/provision/internal/flows"
	"github.com/MrEthical07/provision/internal/phrase"
	"github.com/MrEthical07/provision/internal/wallet"
	"github.com/MrEthical07/provision/password"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (e *Engine) buildFlows() flows.Service {
	code := flows.CodeDeps{
		AllowedSuffix: e.config.Code.AllowedEmailSuffix,
		Digits:        e.config.Code.Digits,
		Issue:         e.otp.Issue,
		Verify:        e.otp.Verify,
		NewError:      newError,
		MetricInc:     func(id int) { e.metricInc(MetricID(id)) },
		ObserveDelivery: func(d time.Duration) {
			e.metrics.Observe(MetricDeliveryLatency, d)
		},
		EmitAudit: e.emitAudit,
		Metrics: flows.CodeMetrics{
			CodeIssued:             int(MetricCodeIssued),
			CodeRateLimited:        int(MetricCodeRateLimited),
			DeliveryFailed:         int(MetricDeliveryFailed),
			DeliveryFallback:       int(MetricDeliveryFallback),
			VerifySuccess:          int(MetricVerifySuccess),
			VerifyNotFound:         int(MetricVerifyNotFound),
			VerifyExpired:          int(MetricVerifyExpired),
			VerifyMismatch:         int(MetricVerifyMismatch),
			VerifyAttemptsExceeded: int(MetricVerifyAttemptsExceeded),
		},
		Events: flows.CodeEvents{
			CodeIssue:  auditEventCodeIssue,
			CodeVerify: auditEventCodeVerify,
		},
		Errors: flows.CodeErrors{
			EngineNotReady:   ErrEngineNotReady,
			Validation:       ErrValidation,
			RateLimited:      ErrRateLimited,
			Delivery:         ErrDelivery,
			NotFound:         ErrNotFound,
			Expired:          ErrExpired,
			Mismatch:         ErrMismatch,
			AttemptsExceeded: ErrAttemptsExceeded,
			Unavailable:      ErrUnavailable,
		},
	}

	registration := flows.RegistrationDeps{
		SessionTTL:      e.config.Session.TTL,
		PhraseLength:    e.config.Registration.PhraseLength,
		ChallengeSize:   e.config.Registration.ChallengeSize,
		Now:             e.now,
		NewSessionID:    uuid.NewString,
		Code:            code,
		AccountExists:   e.accountExists,
		GetAccount:      e.accounts.Get,
		CreateAccount:   e.createAccount,
		CheckPassword:   checkPassword,
		HashPassword:    e.passwordHash.Hash,
		GeneratePhrase:  phrase.Generate,
		ChoosePositions: phrase.ChoosePositions,
		VerifyPhrase:    phrase.Verify,
		NewWalletTag:    wallet.NewTag,
		LoadSession:     e.loadSession,
		SaveSession:     e.saveSession,
		LoadPhrase:      e.loadPhrase,
		SavePhrase:      e.savePhrase,
		DropPhrase:      e.dropPhrase,
		ClearSession:    e.clearSession,
		Metrics: flows.RegistrationMetrics{
			SequenceViolation: int(MetricSequenceViolation),
			SessionExpired:    int(MetricSessionExpired),
			PasswordRejected:  int(MetricPasswordRejected),
			PhrasePassed:      int(MetricPhrasePassed),
			PhraseFailed:      int(MetricPhraseFailed),
			Completed:         int(MetricRegistrationCompleted),
			Conflict:          int(MetricRegistrationConflict),
			AlreadyRegistered: int(MetricAlreadyRegistered),
		},
		Events: flows.RegistrationEvents{
			Start:             auditEventRegistrationStart,
			Password:          auditEventRegistrationPassword,
			PhraseConfirmed:   auditEventPhraseConfirmed,
			PhraseChallenge:   auditEventPhraseChallenge,
			Finalize:          auditEventRegistrationFinalize,
			SequenceViolation: auditEventSequenceViolation,
			Cleared:           auditEventRegistrationCleared,
		},
		Errors: flows.RegistrationErrors{
			EngineNotReady:    ErrEngineNotReady,
			Validation:        ErrValidation,
			Mismatch:          ErrMismatch,
			SequenceViolation: ErrSequenceViolation,
			Conflict:          ErrConflict,
			AlreadyRegistered: ErrAlreadyRegistered,
			Unavailable:       ErrUnavailable,
		},
	}

	login := flows.LoginDeps{
		AllowedSuffix:  e.config.Code.AllowedEmailSuffix,
		Now:            e.now,
		GetAccount:     e.accounts.Get,
		TouchLogin:     e.accounts.TouchLogin,
		VerifyPassword: e.verifyPassword,
		NewError:       newError,
		MetricInc:      func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit:      e.emitAudit,
		Metrics: flows.LoginMetrics{
			LoginSuccess:    int(MetricLoginSuccess),
			LoginFailure:    int(MetricLoginFailure),
			LoginIncomplete: int(MetricLoginIncomplete),
		},
		Events: flows.LoginEvents{Login: auditEventLogin},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			Validation:         ErrValidation,
			InvalidCredentials: ErrInvalidCredentials,
			Incomplete:         ErrAccountIncomplete,
			Unavailable:        ErrUnavailable,
		},
	}

	return flows.New(flows.Deps{Code: code, Registration: registration, Login: login})
}

// checkPassword returns the first policy message, then the confirmation
// message.
func checkPassword(pw, confirm string) string {
	if errs := password.CheckConfirmation(pw, confirm); len(errs) > 0 {
		return errs[0].Error()
	}
	return ""
}

func (e *Engine) accountExists(ctx context.Context, email string) (bool, error) {
	_, err := e.accounts.Get(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, accounts.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (e *Engine) createAccount(ctx context.Context, acct accounts.Account) error {
	err := e.accounts.Create(ctx, acct)
	if err != nil && !errors.Is(err, accounts.ErrExists) {
		e.logger.Error("account write failed", zap.String("email", acct.Email), zap.Error(err))
	}
	return err
}

func (e *Engine) loadSession(ctx context.Context, sid string) (flows.Session, bool, error) {
	raw, ok, err := e.carrier.Get(ctx, flows.SessionKey(sid))
	if err != nil || !ok {
		return flows.Session{}, false, err
	}
	var sess flows.Session
	if err := json.Unmarshal(raw, &sess); err != nil || !sess.Step.Known() {
		// unreadable records behave like an expired session
		e.logger.Warn("discarding unreadable registration session", zap.String("session_id", sid))
		return flows.Session{}, false, nil
	}
	sess.ID = sid
	return sess, true, nil
}

func (e *Engine) saveSession(ctx context.Context, sess flows.Session, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := e.carrier.Set(ctx, flows.SessionKey(sess.ID), raw, ttl); err != nil {
		return err
	}
	// keep the phrase alive as long as the record that points at it
	if words, ok, err := e.loadPhrase(ctx, sess.ID); err == nil && ok {
		return e.savePhrase(ctx, sess.ID, words, ttl)
	}
	return nil
}

func (e *Engine) loadPhrase(ctx context.Context, sid string) ([]string, bool, error) {
	raw, ok, err := e.carrier.Get(ctx, flows.PhraseKey(sid))
	if err != nil || !ok {
		return nil, false, err
	}
	var words []string
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, false, nil
	}
	return words, true, nil
}

func (e *Engine) savePhrase(ctx context.Context, sid string, words []string, ttl time.Duration) error {
	raw, err := json.Marshal(words)
	if err != nil {
		return err
	}
	return e.carrier.Set(ctx, flows.PhraseKey(sid), raw, ttl)
}

func (e *Engine) dropPhrase(ctx context.Context, sid string) error {
	return e.carrier.ClearAll(ctx, flows.PhraseKey(sid))
}

func (e *Engine) clearSession(ctx context.Context, sid string) error {
	return e.carrier.ClearAll(ctx, flows.SessionKey(sid), flows.PhraseKey(sid))
}
