package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/provision/internal/otp"
)

type CodeMetrics struct {
	CodeIssued             int
	CodeRateLimited        int
	DeliveryFailed         int
	DeliveryFallback       int
	VerifySuccess          int
	VerifyNotFound         int
	VerifyExpired          int
	VerifyMismatch         int
	VerifyAttemptsExceeded int
}

type CodeEvents struct {
	CodeIssue  string
	CodeVerify string
}

type CodeErrors struct {
	EngineNotReady   error
	Validation       error
	RateLimited      error
	Delivery         error
	NotFound         error
	Expired          error
	Mismatch         error
	AttemptsExceeded error
	Unavailable      error
}

type CodeDeps struct {
	AllowedSuffix string
	Digits        int

	Issue  func(context.Context, string) (otp.IssueOutcome, error)
	Verify func(context.Context, string, string) (otp.VerifyStatus, error)

	NewError        func(kind error, message string, retryAfter time.Duration, cause error) error
	MetricInc       func(int)
	ObserveDelivery func(time.Duration)
	EmitAudit       func(ctx context.Context, event string, success bool, email, sessionID string, err error, metadata func() map[string]string)

	Metrics CodeMetrics
	Events  CodeEvents
	Errors  CodeErrors
}

func normalizeCodeDeps(deps *CodeDeps) {
	if deps.Digits == 0 {
		deps.Digits = 6
	}
	if deps.NewError == nil {
		deps.NewError = func(kind error, _ string, _ time.Duration, _ error) error { return kind }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.ObserveDelivery == nil {
		deps.ObserveDelivery = func(time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
}

// RunSendCode validates email and issues a code outside the registration
// state machine.
func RunSendCode(ctx context.Context, email string, deps CodeDeps) error {
	normalizeCodeDeps(&deps)
	if deps.Issue == nil {
		return deps.Errors.EngineNotReady
	}

	normalized, msg := CheckEmail(email, deps.AllowedSuffix)
	if msg != "" {
		return deps.NewError(deps.Errors.Validation, msg, 0, nil)
	}
	return issueCode(ctx, normalized, "", deps)
}

// RunVerifyCode validates input and consumes the code for email.
func RunVerifyCode(ctx context.Context, email, code string, deps CodeDeps) error {
	normalizeCodeDeps(&deps)
	if deps.Verify == nil {
		return deps.Errors.EngineNotReady
	}

	normalized, msg := CheckEmail(email, deps.AllowedSuffix)
	if msg != "" {
		return deps.NewError(deps.Errors.Validation, msg, 0, nil)
	}
	code = SanitizeInput(code)
	if msg := CheckCode(code, deps.Digits); msg != "" {
		return deps.NewError(deps.Errors.Validation, msg, 0, nil)
	}
	return verifyCode(ctx, normalized, code, "", deps)
}

func issueCode(ctx context.Context, email, sessionID string, deps CodeDeps) error {
	out, err := deps.Issue(ctx, email)
	if err != nil {
		mapped := deps.NewError(deps.Errors.Unavailable, "", 0, err)
		deps.EmitAudit(ctx, deps.Events.CodeIssue, false, email, sessionID, mapped, nil)
		return mapped
	}

	switch out.Status {
	case otp.IssueRateLimited:
		deps.MetricInc(deps.Metrics.CodeRateLimited)
		mapped := deps.NewError(deps.Errors.RateLimited, waitMessage(out.RetryAfter), out.RetryAfter, nil)
		deps.EmitAudit(ctx, deps.Events.CodeIssue, false, email, sessionID, mapped, func() map[string]string {
			return map[string]string{"retry_after": out.RetryAfter.Round(time.Second).String()}
		})
		return mapped

	case otp.IssueDeliveryFailed:
		deps.MetricInc(deps.Metrics.DeliveryFailed)
		deps.ObserveDelivery(out.Delivery.Duration)
		mapped := deps.NewError(deps.Errors.Delivery, "", 0, nil)
		deps.EmitAudit(ctx, deps.Events.CodeIssue, false, email, sessionID, mapped, func() map[string]string {
			return map[string]string{"transport": out.Delivery.Transport, "reason": out.Reason}
		})
		return mapped
	}

	deps.MetricInc(deps.Metrics.CodeIssued)
	deps.ObserveDelivery(out.Delivery.Duration)
	if out.Delivery.FellBack {
		deps.MetricInc(deps.Metrics.DeliveryFallback)
	}
	deps.EmitAudit(ctx, deps.Events.CodeIssue, true, email, sessionID, nil, func() map[string]string {
		return map[string]string{"transport": out.Delivery.Transport}
	})
	return nil
}

func verifyCode(ctx context.Context, email, code, sessionID string, deps CodeDeps) error {
	status, err := deps.Verify(ctx, email, code)
	if err != nil {
		mapped := deps.NewError(deps.Errors.Unavailable, "", 0, err)
		deps.EmitAudit(ctx, deps.Events.CodeVerify, false, email, sessionID, mapped, nil)
		return mapped
	}

	var (
		metric int
		kind   error
	)
	switch status {
	case otp.VerifyOK:
		deps.MetricInc(deps.Metrics.VerifySuccess)
		deps.EmitAudit(ctx, deps.Events.CodeVerify, true, email, sessionID, nil, nil)
		return nil
	case otp.VerifyExpired:
		metric, kind = deps.Metrics.VerifyExpired, deps.Errors.Expired
	case otp.VerifyMismatch:
		metric, kind = deps.Metrics.VerifyMismatch, deps.Errors.Mismatch
	case otp.VerifyAttemptsExceeded:
		metric, kind = deps.Metrics.VerifyAttemptsExceeded, deps.Errors.AttemptsExceeded
	default:
		metric, kind = deps.Metrics.VerifyNotFound, deps.Errors.NotFound
	}

	deps.MetricInc(metric)
	mapped := deps.NewError(kind, "", 0, nil)
	deps.EmitAudit(ctx, deps.Events.CodeVerify, false, email, sessionID, mapped, func() map[string]string {
		return map[string]string{"outcome": status.String()}
	})
	return mapped
}
