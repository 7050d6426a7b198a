package provision

import (
	"context"
	"errors"

	"github.com/MrEthical07/provision/internal/flows"
	"go.uber.org/zap"
)

// StartRegistration opens a registration session for email and sends the
// first code. A live session named by previousTicket is discarded first.
func (e *Engine) StartRegistration(ctx context.Context, previousTicket, email string) (RegistrationStatus, error) {
	if !e.ready() {
		return RegistrationStatus{Step: StepEmail}, ErrEngineNotReady
	}
	st, err := e.flow.StartRegistration(ctx, e.sessionID(previousTicket), email)
	return e.registrationResult(ctx, st, err)
}

// ResendRegistrationCode reissues the code for a session waiting on it.
func (e *Engine) ResendRegistrationCode(ctx context.Context, ticket string) (RegistrationStatus, error) {
	if !e.ready() {
		return RegistrationStatus{Step: StepEmail}, ErrEngineNotReady
	}
	st, err := e.flow.ResendRegistrationCode(ctx, e.sessionID(ticket))
	return e.registrationResult(ctx, st, err)
}

func (e *Engine) VerifyRegistrationCode(ctx context.Context, ticket, code string) (RegistrationStatus, error) {
	if !e.ready() {
		return RegistrationStatus{Step: StepEmail}, ErrEngineNotReady
	}
	st, err := e.flow.VerifyRegistrationCode(ctx, e.sessionID(ticket), code)
	return e.registrationResult(ctx, st, err)
}

// SetRegistrationPassword accepts the password for the verified email and
// returns the freshly generated recovery phrase.
func (e *Engine) SetRegistrationPassword(ctx context.Context, ticket, email, password, confirm string) (RegistrationStatus, error) {
	if !e.ready() {
		return RegistrationStatus{Step: StepEmail}, ErrEngineNotReady
	}
	st, err := e.flow.SetRegistrationPassword(ctx, e.sessionID(ticket), email, password, confirm)
	return e.registrationResult(ctx, st, err)
}

// ShowRegistrationPhrase returns the phrase again while it is on screen.
func (e *Engine) ShowRegistrationPhrase(ctx context.Context, ticket string) (RegistrationStatus, error) {
	if !e.ready() {
		return RegistrationStatus{Step: StepEmail}, ErrEngineNotReady
	}
	st, err := e.flow.ShowRegistrationPhrase(ctx, e.sessionID(ticket))
	return e.registrationResult(ctx, st, err)
}

// ConfirmPhraseSaved picks the recall positions and returns them.
func (e *Engine) ConfirmPhraseSaved(ctx context.Context, ticket string) (RegistrationStatus, error) {
	if !e.ready() {
		return RegistrationStatus{Step: StepEmail}, ErrEngineNotReady
	}
	st, err := e.flow.ConfirmPhraseSaved(ctx, e.sessionID(ticket))
	return e.registrationResult(ctx, st, err)
}

// VerifyRegistrationPhrase checks the recalled words. A wrong answer
// keeps the challenge open.
func (e *Engine) VerifyRegistrationPhrase(ctx context.Context, ticket string, answers []PhraseAnswer) (RegistrationStatus, error) {
	if !e.ready() {
		return RegistrationStatus{Step: StepEmail}, ErrEngineNotReady
	}
	st, err := e.flow.VerifyRegistrationPhrase(ctx, e.sessionID(ticket), answers)
	return e.registrationResult(ctx, st, err)
}

// FinalizeRegistration writes the account and ends the session. Calling
// it again for an account that already completed returns that account.
func (e *Engine) FinalizeRegistration(ctx context.Context, ticket string) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}
	return e.flow.FinalizeRegistration(ctx, e.sessionID(ticket))
}

// RegistrationStatus reports where the session named by ticket stands. An
// unknown or expired ticket reads as StepEmail.
func (e *Engine) RegistrationStatus(ctx context.Context, ticket string) (RegistrationStatus, error) {
	if !e.ready() {
		return RegistrationStatus{Step: StepEmail}, ErrEngineNotReady
	}
	st, err := e.flow.RegistrationStatus(ctx, e.sessionID(ticket))
	if err != nil {
		return RegistrationStatus{Step: StepEmail}, err
	}
	if st.SessionID == "" {
		return RegistrationStatus{Step: st.Step}, nil
	}
	return RegistrationStatus{
		Ticket:    ticket,
		Step:      st.Step,
		Email:     st.Email,
		Positions: st.Positions,
	}, nil
}

// ClearRegistration drops the session named by ticket, if any.
func (e *Engine) ClearRegistration(ctx context.Context, ticket string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	sid := e.sessionID(ticket)
	if sid == "" {
		return nil
	}
	return e.flow.ClearRegistration(ctx, sid)
}

// sessionID resolves a ticket. Invalid tickets resolve to "", which the
// flows treat as a missing session.
func (e *Engine) sessionID(ticket string) string {
	if ticket == "" {
		return ""
	}
	sid, err := e.tickets.Parse(ticket)
	if err != nil {
		e.logger.Debug("rejected registration ticket", zap.Error(err))
		return ""
	}
	return sid
}

// registrationResult converts a flow status and attaches a fresh ticket
// while the session is alive.
func (e *Engine) registrationResult(ctx context.Context, st flows.Status, err error) (RegistrationStatus, error) {
	out := RegistrationStatus{
		Step:      st.Step,
		Email:     st.Email,
		Words:     st.Words,
		Positions: st.Positions,
	}
	if out.Step == "" {
		out.Step = StepEmail
	}
	if st.SessionID == "" || errors.Is(err, ErrSequenceViolation) {
		return out, err
	}

	ticket, issueErr := e.tickets.Issue(st.SessionID)
	if issueErr != nil {
		e.logger.Error("registration ticket issue failed", zap.Error(issueErr))
		_ = e.flow.ClearRegistration(ctx, st.SessionID)
		return RegistrationStatus{Step: StepEmail}, newError(ErrUnavailable, "", 0, issueErr)
	}
	out.Ticket = ticket
	return out, err
}
