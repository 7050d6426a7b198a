package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Security selects how the SMTP session is secured.
type Security int

const (
	// ImplicitTLS opens a TLS connection before the SMTP greeting.
	ImplicitTLS Security = iota
	// StartTLS upgrades a plain connection with STARTTLS.
	StartTLS
)

func (s Security) String() string {
	switch s {
	case ImplicitTLS:
		return "SSL"
	case StartTLS:
		return "STARTTLS"
	default:
		return "UNKNOWN"
	}
}

// SMTPConfig describes one relay route.
type SMTPConfig struct {
	Host            string
	Port            int
	Security        Security
	Username        string
	Password        string
	ConnectTimeout  time.Duration
	GreetingTimeout time.Duration
	SocketTimeout   time.Duration
}

// budget bounds one full exchange.
func (c SMTPConfig) budget() time.Duration {
	return c.ConnectTimeout + c.GreetingTimeout + c.SocketTimeout
}

// SMTPTransport sends through an authenticated SMTP relay.
type SMTPTransport struct {
	config SMTPConfig
}

// NewSMTPTransport validates cfg and returns a transport.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp port %d out of range", cfg.Port)
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.GreetingTimeout <= 0 {
		cfg.GreetingTimeout = 5 * time.Second
	}
	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = 10 * time.Second
	}
	return &SMTPTransport{config: cfg}, nil
}

func (t *SMTPTransport) Name() string {
	return fmt.Sprintf("%s (port %d)", t.config.Security, t.config.Port)
}

func (t *SMTPTransport) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(t.config.Port),
		gomail.WithTimeout(t.config.ConnectTimeout),
	}
	if t.config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(t.config.Username),
			gomail.WithPassword(t.config.Password),
		)
	}
	switch t.config.Security {
	case ImplicitTLS:
		opts = append(opts, gomail.WithSSL())
	case StartTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	return gomail.NewClient(t.config.Host, opts...)
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := buildMessage(msg)
	if err != nil {
		return err
	}
	c, err := t.client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.config.budget())
	defer cancel()
	return c.DialAndSendWithContext(ctx, m)
}

func (t *SMTPTransport) Probe(ctx context.Context) error {
	c, err := t.client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.config.ConnectTimeout+t.config.GreetingTimeout)
	defer cancel()
	if err := c.DialWithContext(ctx); err != nil {
		return err
	}
	return c.Close()
}

func buildMessage(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(msg.FromName, msg.FromAddress); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}
