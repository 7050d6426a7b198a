// Package config loads server settings from the environment and an optional
// .env file using Viper, and maps them onto provision.Config.
package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/provision"
	"github.com/spf13/viper"
)

// Config holds process configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port int `mapstructure:"PORT"`
	// Env is the application environment ("development", "production").
	Env string `mapstructure:"APP_ENV"`
	// Version is reported by the liveness route.
	Version string `mapstructure:"SERVICE_VERSION"`

	OTPTTLSeconds      int    `mapstructure:"OTP_TTL_SECONDS"`
	AllowedEmailSuffix string `mapstructure:"ALLOWED_EMAIL_SUFFIX"`
	SessionTTLMinutes  int    `mapstructure:"SESSION_TTL_MINUTES"`

	SMTPHost         string `mapstructure:"SMTP_HOST"`
	SMTPUser         string `mapstructure:"SMTP_USER"`
	SMTPPass         string `mapstructure:"SMTP_PASS"`
	SMTPPrimaryPort  int    `mapstructure:"SMTP_PRIMARY_PORT"`
	SMTPFallbackPort int    `mapstructure:"SMTP_FALLBACK_PORT"`
	SenderName       string `mapstructure:"SENDER_NAME"`
	SenderEmail      string `mapstructure:"SENDER_EMAIL"`
	// MailDevLog logs codes instead of mailing them. Refused in production.
	MailDevLog bool `mapstructure:"MAIL_DEV_LOG"`

	// RedisAddr selects Redis-backed stores; empty keeps everything in memory.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPrefix   string `mapstructure:"REDIS_PREFIX"`

	// TicketSecret signs registration tickets. Required outside development.
	TicketSecret string `mapstructure:"TICKET_SECRET"`

	AuditEnabled bool `mapstructure:"AUDIT_ENABLED"`
	TrustProxy   bool `mapstructure:"TRUST_PROXY"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogDev   bool   `mapstructure:"LOG_DEV"`
}

// Load reads envFile (if present), then builds and validates Config from the
// environment. A missing file is ignored; env vars override it.
func Load(envFile string) (*Config, error) {
	v := viper.New()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()

	v.SetDefault("PORT", 8000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVICE_VERSION", "1.0")
	v.SetDefault("OTP_TTL_SECONDS", 600)
	v.SetDefault("ALLOWED_EMAIL_SUFFIX", "@isu.ac.in")
	v.SetDefault("SESSION_TTL_MINUTES", 30)
	v.SetDefault("SMTP_HOST", "smtp.zoho.com")
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_PRIMARY_PORT", 465)
	v.SetDefault("SMTP_FALLBACK_PORT", 587)
	v.SetDefault("SENDER_NAME", "CIVORAA")
	v.SetDefault("SENDER_EMAIL", "")
	v.SetDefault("MAIL_DEV_LOG", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "prv")
	v.SetDefault("TICKET_SECRET", "")
	v.SetDefault("AUDIT_ENABLED", true)
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LOG_DEV", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Production reports whether APP_ENV is production.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("config: PORT must be between 1 and 65535")
	}
	if c.OTPTTLSeconds <= 0 {
		return errors.New("config: OTP_TTL_SECONDS must be > 0")
	}
	if c.SessionTTLMinutes <= 0 {
		return errors.New("config: SESSION_TTL_MINUTES must be > 0")
	}
	if c.MailDevLog && c.Production() {
		return errors.New("config: MAIL_DEV_LOG must not be true when APP_ENV=production")
	}
	if c.Production() && len(c.TicketSecret) < 32 {
		return errors.New("config: TICKET_SECRET must be at least 32 bytes when APP_ENV=production")
	}
	if !c.MailDevLog && (c.SMTPUser == "" || c.SMTPPass == "") {
		return errors.New("config: SMTP_USER and SMTP_PASS are required unless MAIL_DEV_LOG is set")
	}
	return nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Engine maps the process settings onto provision.Config. Outside
// production a missing ticket secret is replaced by a random one, so
// tickets do not survive a restart.
func (c *Config) Engine() (provision.Config, error) {
	out := provision.DefaultConfig()

	out.Code.TTL = time.Duration(c.OTPTTLSeconds) * time.Second
	out.Code.AllowedEmailSuffix = c.AllowedEmailSuffix
	out.Session.TTL = time.Duration(c.SessionTTLMinutes) * time.Minute

	out.Mail.Host = c.SMTPHost
	out.Mail.Username = c.SMTPUser
	out.Mail.Password = c.SMTPPass
	out.Mail.PrimaryPort = c.SMTPPrimaryPort
	out.Mail.FallbackPort = c.SMTPFallbackPort
	out.Mail.SenderName = c.SenderName
	out.Mail.SenderAddress = c.SenderEmail
	if out.Mail.SenderAddress == "" {
		out.Mail.SenderAddress = c.SMTPUser
	}
	out.Mail.DevLog = c.MailDevLog
	if c.MailDevLog && out.Mail.SenderAddress == "" {
		out.Mail.SenderAddress = "dev@localhost"
	}

	out.Redis.Prefix = c.RedisPrefix
	out.Audit.Enabled = c.AuditEnabled

	secret := []byte(c.TicketSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return provision.Config{}, err
		}
	}
	out.Ticket.PrivateKey = secret

	if err := out.Validate(); err != nil {
		return provision.Config{}, err
	}
	return out, nil
}
