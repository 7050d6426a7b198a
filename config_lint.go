package provision

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is one advisory finding. Lint findings never block Build;
// use AsError to gate startup on them.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

type LintWarnings []LintWarning

func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError joins warnings at or above min into one error, or returns nil.
func (ws LintWarnings) AsError(min LintSeverity) error {
	hits := ws.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return errors.New("config lint: " + strings.Join(parts, "; "))
}

// Lint reports settings that are valid but risky.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.Mail.DevLog {
		add("mail_dev_log", LintHigh, "codes are written to the log instead of mailed")
	}
	if c.Code.MaxVerifyAttempts > 10 {
		add("verify_attempts_high", LintWarn, "more than 10 guesses per code weakens the code space")
	}
	if c.Code.Digits < 6 {
		add("code_digits_low", LintWarn, "codes shorter than 6 digits are easy to guess")
	}
	if c.Code.TTL > 30*time.Minute {
		add("code_ttl_long", LintWarn, "codes live longer than 30 minutes")
	}
	if c.RateLimit.MaxAttempts > 10 {
		add("rate_limit_loose", LintWarn, "more than 10 codes per window")
	}
	if c.RateLimit.Cooldown <= 0 {
		add("cooldown_disabled", LintInfo, "no cooldown after the window cap is reached")
	}
	if c.Ticket.TTL < c.Session.TTL {
		add("ticket_shorter_than_session", LintWarn, "tickets expire before the session they name")
	}
	if c.Ticket.SigningMethod == "hs256" {
		add("signing_hs256", LintInfo, "tickets are signed with a shared secret")
	}
	if c.Password.Memory < 64*1024 {
		add("argon2_memory_low", LintWarn, "argon2 memory below 64 MB")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "no audit trail is recorded")
	}
	if c.Mail.FallbackPort == 0 && !c.Mail.DevLog {
		add("mail_no_fallback", LintInfo, "no fallback SMTP route")
	}
	if c.Registration.ChallengeSize < 3 {
		add("challenge_small", LintWarn, "fewer than 3 recalled words")
	}
	return ws
}
