package provision

import (
	"context"

	"github.com/MrEthical07/provision/internal/mail"
)

// ProbeMail dials every configured transport without sending and reports
// which ones are reachable. Credentials other than the username are never
// included.
func (e *Engine) ProbeMail(ctx context.Context) MailProbe {
	if e == nil || e.gateway == nil {
		return MailProbe{}
	}
	results := e.gateway.Probe(ctx)
	return MailProbe{
		OK:      mail.Reachable(results),
		Results: results,
		Host:    e.config.Mail.Host,
		User:    e.config.Mail.Username,
		Sender:  e.config.Mail.SenderAddress,
	}
}
