package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/provision/internal/accounts"
)

type LoginMetrics struct {
	LoginSuccess    int
	LoginFailure    int
	LoginIncomplete int
}

type LoginEvents struct {
	Login string
}

type LoginErrors struct {
	EngineNotReady     error
	Validation         error
	InvalidCredentials error
	Incomplete         error
	Unavailable        error
}

type LoginDeps struct {
	AllowedSuffix string

	Now            func() time.Time
	GetAccount     func(context.Context, string) (accounts.Account, error)
	TouchLogin     func(context.Context, string, time.Time) error
	VerifyPassword func(password, hash string) (bool, error)

	NewError  func(kind error, message string, retryAfter time.Duration, cause error) error
	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, email, sessionID string, err error, metadata func() map[string]string)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewError == nil {
		deps.NewError = func(kind error, _ string, _ time.Duration, _ error) error { return kind }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
}

// RunLogin checks credentials against the stored account and stamps the
// last-login time. Unknown email and wrong password are indistinguishable.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (accounts.Account, error) {
	normalizeLoginDeps(&deps)
	if deps.GetAccount == nil || deps.TouchLogin == nil || deps.VerifyPassword == nil {
		return accounts.Account{}, deps.Errors.EngineNotReady
	}

	normalized, msg := CheckEmail(email, deps.AllowedSuffix)
	if msg != "" {
		return accounts.Account{}, deps.NewError(deps.Errors.Validation, msg, 0, nil)
	}
	if password == "" {
		return accounts.Account{}, deps.NewError(deps.Errors.Validation, "Password is required", 0, nil)
	}

	fail := func(kind error, cause error) (accounts.Account, error) {
		mapped := deps.NewError(kind, "", 0, cause)
		deps.EmitAudit(ctx, deps.Events.Login, false, normalized, "", mapped, nil)
		return accounts.Account{}, mapped
	}

	acct, err := deps.GetAccount(ctx, normalized)
	if errors.Is(err, accounts.ErrNotFound) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return fail(deps.Errors.InvalidCredentials, nil)
	}
	if err != nil {
		return fail(deps.Errors.Unavailable, err)
	}

	ok, err := deps.VerifyPassword(password, acct.PasswordHash)
	if err != nil || !ok {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return fail(deps.Errors.InvalidCredentials, nil)
	}
	if acct.RegistrationStep != string(StepCompleted) {
		deps.MetricInc(deps.Metrics.LoginIncomplete)
		return fail(deps.Errors.Incomplete, nil)
	}

	now := deps.Now().UTC()
	if err := deps.TouchLogin(ctx, normalized, now); err != nil {
		return fail(deps.Errors.Unavailable, err)
	}
	acct.LastLogin = now

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.Login, true, normalized, "", nil, nil)
	return acct, nil
}
