package provision

import "time"

// SecurityReport summarizes the security-relevant posture of a built
// engine. It never carries key material or SMTP credentials.
type SecurityReport struct {
	SigningAlgorithm   string
	TicketTTL          time.Duration
	SessionTTL         time.Duration
	CodeTTL            time.Duration
	CodeDigits         int
	MaxVerifyAttempts  int
	RateLimitingActive bool
	MailFallback       bool
	DevMailLog         bool
	RedisBacked        bool
	AuditEnabled       bool
	AllowedEmailSuffix string
	PhraseLength       int
	ChallengeSize      int
	Argon2             PasswordConfigReport
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	alg := e.config.Ticket.SigningMethod
	if e.tickets != nil {
		alg = e.tickets.Algorithm()
	}

	return SecurityReport{
		SigningAlgorithm:   alg,
		TicketTTL:          e.config.Ticket.TTL,
		SessionTTL:         e.config.Session.TTL,
		CodeTTL:            e.config.Code.TTL,
		CodeDigits:         e.config.Code.Digits,
		MaxVerifyAttempts:  e.config.Code.MaxVerifyAttempts,
		RateLimitingActive: e.config.RateLimit.MaxAttempts > 0 && e.config.RateLimit.Window > 0,
		MailFallback:       e.gateway != nil && e.gateway.HasFallback(),
		DevMailLog:         e.config.Mail.DevLog,
		RedisBacked:        e.redis != nil,
		AuditEnabled:       e.config.Audit.Enabled,
		AllowedEmailSuffix: e.config.Code.AllowedEmailSuffix,
		PhraseLength:       e.config.Registration.PhraseLength,
		ChallengeSize:      e.config.Registration.ChallengeSize,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
	}
}
