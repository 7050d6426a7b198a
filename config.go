package provision

import (
	"errors"
	"strings"
	"time"
)

// Config holds every tunable of the provisioning engine.
type Config struct {
	Code         CodeConfig
	RateLimit    RateLimitConfig
	Session      SessionConfig
	Registration RegistrationConfig
	Mail         MailConfig
	Password     PasswordConfig
	Ticket       TicketConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
	Redis        RedisConfig
	Sweep        SweepConfig
}

/*
====================================
CODE CONFIG
====================================
*/

// CodeConfig shapes one-time codes.
type CodeConfig struct {
	TTL               time.Duration
	Digits            int
	MaxVerifyAttempts int
	// Retention keeps expired codes so a late verify reports expiry
	// instead of absence.
	Retention          time.Duration
	AllowedEmailSuffix string
}

// RateLimitConfig bounds issuance per email.
type RateLimitConfig struct {
	Window      time.Duration
	MaxAttempts int
	Cooldown    time.Duration
}

// SessionConfig controls the registration session carrier.
type SessionConfig struct {
	// TTL is idle lifetime; every transition refreshes it.
	TTL time.Duration
}

// RegistrationConfig shapes the recovery phrase challenge.
type RegistrationConfig struct {
	PhraseLength  int
	ChallengeSize int
}

/*
====================================
MAIL CONFIG
====================================
*/

// MailConfig describes the SMTP relay and the sender identity.
type MailConfig struct {
	Host            string
	PrimaryPort     int
	FallbackPort    int
	Username        string
	Password        string
	SenderName      string
	SenderAddress   string
	Subject         string
	ConnectTimeout  time.Duration
	GreetingTimeout time.Duration
	SocketTimeout   time.Duration
	// DevLog replaces SMTP with a transport that logs messages. Never
	// enable in production.
	DevLog bool
}

// PasswordConfig holds Argon2id costs.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// TicketConfig controls the signed registration ticket.
type TicketConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// RedisConfig names the key namespace used when a Redis client is wired.
type RedisConfig struct {
	Prefix string
}

// SweepConfig drives the background purge of in-memory stores.
type SweepConfig struct {
	Interval time.Duration
}

// DefaultConfig returns production defaults. Ticket.PrivateKey must still
// be provided.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Code: CodeConfig{
			TTL:                10 * time.Minute,
			Digits:             6,
			MaxVerifyAttempts:  5,
			Retention:          time.Hour,
			AllowedEmailSuffix: "@isu.ac.in",
		},
		RateLimit: RateLimitConfig{
			Window:      15 * time.Minute,
			MaxAttempts: 3,
			Cooldown:    2 * time.Minute,
		},
		Session: SessionConfig{
			TTL: 30 * time.Minute,
		},
		Registration: RegistrationConfig{
			PhraseLength:  12,
			ChallengeSize: 4,
		},
		Mail: MailConfig{
			Host:            "smtp.zoho.com",
			PrimaryPort:     465,
			FallbackPort:    587,
			SenderName:      "CIVORAA",
			Subject:         "Your CIVORAA Verification Code",
			ConnectTimeout:  10 * time.Second,
			GreetingTimeout: 5 * time.Second,
			SocketTimeout:   10 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Ticket: TicketConfig{
			TTL:           2 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "provision",
			Audience:      "registration",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Redis: RedisConfig{
			Prefix: "prv",
		},
		Sweep: SweepConfig{
			Interval: time.Minute,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Ticket.PrivateKey = cloneBytes(cfg.Ticket.PrivateKey)
	out.Ticket.PublicKey = cloneBytes(cfg.Ticket.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects configurations the engine cannot run safely with.
func (c *Config) Validate() error {
	return c.validate(!c.Mail.DevLog)
}

func (c *Config) validate(requireSMTP bool) error {
	// Code
	if c.Code.TTL <= 0 {
		return errors.New("Code TTL must be > 0")
	}
	if c.Code.Digits < 4 || c.Code.Digits > 10 {
		return errors.New("Code Digits must be in [4,10]")
	}
	if c.Code.MaxVerifyAttempts <= 0 {
		return errors.New("Code MaxVerifyAttempts must be > 0")
	}
	if c.Code.Retention < 0 {
		return errors.New("Code Retention must be >= 0")
	}
	if c.Code.AllowedEmailSuffix != "" && !strings.HasPrefix(c.Code.AllowedEmailSuffix, "@") {
		return errors.New("Code AllowedEmailSuffix must start with @")
	}

	// Rate limit
	if c.RateLimit.Window <= 0 {
		return errors.New("RateLimit Window must be > 0")
	}
	if c.RateLimit.MaxAttempts <= 0 {
		return errors.New("RateLimit MaxAttempts must be > 0")
	}
	if c.RateLimit.Cooldown < 0 {
		return errors.New("RateLimit Cooldown must be >= 0")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TTL < c.Code.TTL {
		return errors.New("Session TTL must be >= Code TTL")
	}

	// Registration
	if c.Registration.PhraseLength < 1 || c.Registration.PhraseLength > 48 {
		return errors.New("Registration PhraseLength must be in [1,48]")
	}
	if c.Registration.ChallengeSize < 1 || c.Registration.ChallengeSize > c.Registration.PhraseLength {
		return errors.New("Registration ChallengeSize must be in [1,PhraseLength]")
	}

	// Mail
	if requireSMTP {
		if strings.TrimSpace(c.Mail.Host) == "" {
			return errors.New("Mail Host is required")
		}
		if c.Mail.PrimaryPort <= 0 || c.Mail.PrimaryPort > 65535 {
			return errors.New("Mail PrimaryPort out of range")
		}
		if c.Mail.FallbackPort < 0 || c.Mail.FallbackPort > 65535 {
			return errors.New("Mail FallbackPort out of range")
		}
	}
	if strings.TrimSpace(c.Mail.SenderAddress) == "" {
		return errors.New("Mail SenderAddress is required")
	}
	if c.Mail.ConnectTimeout <= 0 || c.Mail.SocketTimeout <= 0 || c.Mail.GreetingTimeout <= 0 {
		return errors.New("Mail timeouts must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Ticket
	if c.Ticket.TTL <= 0 {
		return errors.New("Ticket TTL must be > 0")
	}
	switch c.Ticket.SigningMethod {
	case "hs256":
		if len(c.Ticket.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	case "ed25519":
		if len(c.Ticket.PrivateKey) == 0 || len(c.Ticket.PublicKey) == 0 {
			return errors.New("ed25519 requires PrivateKey and PublicKey")
		}
	default:
		return errors.New("unsupported Ticket signing method")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Sweep
	if c.Sweep.Interval < 0 {
		return errors.New("Sweep Interval must be >= 0")
	}

	return nil
}
