package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport writes messages to the logger instead of a relay. The text
// body, and therefore the code, is logged; never enable it in production.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTransport{logger: logger.Named("mail.dev")}
}

func (t *LogTransport) Name() string { return "LOG (development)" }

func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.logger.Info("mail captured",
		zap.String("to", msg.To),
		zap.String("from", msg.Sender()),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}

func (t *LogTransport) Probe(context.Context) error { return nil }
