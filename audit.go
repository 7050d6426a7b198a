package provision

import (
	"context"
	"io"

	internalaudit "github.com/MrEthical07/provision/internal/audit"
	"go.uber.org/zap"
)

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives AuditEvent values from the engine's dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers events on a channel and drops what does not fit.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per event.
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink writes events through a zap logger.
type ZapSink = internalaudit.ZapSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}

const (
	auditEventCodeIssue            = "code_issue"
	auditEventCodeVerify           = "code_verify"
	auditEventRegistrationStart    = "registration_start"
	auditEventRegistrationPassword = "registration_password"
	auditEventPhraseConfirmed      = "registration_phrase_confirmed"
	auditEventPhraseChallenge      = "registration_phrase_challenge"
	auditEventRegistrationFinalize = "registration_finalize"
	auditEventSequenceViolation    = "registration_sequence_violation"
	auditEventRegistrationCleared  = "registration_cleared"
	auditEventLogin                = "login"
)

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, email, sessionID string, err error, metadata func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Email:     email,
		SessionID: sessionID,
		RequestID: requestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if err != nil {
		event.Error, _ = Describe(err)
	}
	if metadata != nil {
		event.Metadata = metadata()
	}
	e.audit.Emit(ctx, event)
}
