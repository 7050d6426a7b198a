package provision

import "context"

// SendCode issues a one-time code to email outside any registration
// session. It returns ErrValidation, ErrRateLimited (see RetryAfter),
// ErrDelivery or ErrUnavailable.
func (e *Engine) SendCode(ctx context.Context, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flow.SendCode(ctx, email)
}

// VerifyCode consumes the outstanding code for email. A successful
// verification removes the code; a wrong guess counts against the cap.
func (e *Engine) VerifyCode(ctx context.Context, email, code string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flow.VerifyCode(ctx, email, code)
}
