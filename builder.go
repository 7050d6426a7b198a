package provision

import (
	"errors"
	"time"

	"github.com/MrEthical07/provision/internal/accounts"
	internalaudit "github.com/MrEthical07/provision/internal/audit"
	"github.com/MrEthical07/provision/internal/limiters"
	"github.com/MrEthical07/provision/internal/mail"
	"github.com/MrEthical07/provision/internal/otp"
	"github.com/MrEthical07/provision/internal/stores"
	"github.com/MrEthical07/provision/jwt"
	"github.com/MrEthical07/provision/password"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an Engine. Configure it once, call Build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	logger *zap.Logger
	now    func() time.Time

	auditSink  AuditSink
	accounts   AccountStore
	transports []MailTransport
	newCode    func(int) (string, error)

	built bool
}

// New returns a builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis moves limiter, codes, sessions and accounts to Redis. Without
// it every store is in-process.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithAccountStore overrides the account document store.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithMailTransports replaces the SMTP transports. The first is primary,
// the optional second is the fallback.
func (b *Builder) WithMailTransports(primary MailTransport, fallback ...MailTransport) *Builder {
	b.transports = append([]MailTransport{primary}, fallback...)
	return b
}

// WithClock overrides the time source of every time-based component.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithCodeGenerator overrides numeric code generation.
func (b *Builder) WithCodeGenerator(gen func(digits int) (string, error)) *Builder {
	b.newCode = gen
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine. Background
// sweeping starts here for in-memory stores; Close stops it.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	// injected transports stand in for SMTP
	requireSMTP := !cfg.Mail.DevLog && len(b.transports) == 0
	if err := cfg.validate(requireSMTP); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config: cfg,
		logger: logger,
		now:    now,
		redis:  b.redis,
	}

	// -------- STORES --------
	limiterCfg := limiters.IssuanceConfig{
		Window:      cfg.RateLimit.Window,
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Cooldown:    cfg.RateLimit.Cooldown,
	}
	if b.redis != nil {
		engine.limiter = limiters.NewRedisIssuanceLimiter(b.redis, cfg.Redis.Prefix, limiterCfg, now)
		engine.codes = stores.NewRedisCodeStore(b.redis, cfg.Redis.Prefix, cfg.Code.Retention, now)
		engine.carrier = stores.NewRedisCarrier(b.redis, cfg.Redis.Prefix, now)
		engine.accounts = accounts.NewRedisStore(b.redis, cfg.Redis.Prefix)
	} else {
		limiter := limiters.NewMemoryIssuanceLimiter(limiterCfg, now)
		codes := stores.NewMemoryCodeStore(cfg.Code.Retention, now)
		carrier := stores.NewMemoryCarrier(now)
		engine.limiter, engine.codes, engine.carrier = limiter, codes, carrier
		engine.accounts = accounts.NewMemoryStore()
		engine.sweepers = []func() int{limiter.Prune, codes.Sweep, carrier.Sweep}
	}
	if b.accounts != nil {
		engine.accounts = b.accounts
	}

	// -------- MAIL --------
	primary, fallback, err := b.buildTransports(cfg, logger)
	if err != nil {
		return nil, err
	}
	engine.gateway = mail.NewGateway(primary, fallback, logger)

	engine.otp = otp.NewService(otp.Config{
		TTL:               cfg.Code.TTL,
		Digits:            cfg.Code.Digits,
		MaxVerifyAttempts: cfg.Code.MaxVerifyAttempts,
		Subject:           cfg.Mail.Subject,
		FromName:          cfg.Mail.SenderName,
		FromAddress:       cfg.Mail.SenderAddress,
	}, engine.limiter, engine.codes, engine.gateway, logger)
	if b.newCode != nil {
		engine.otp.NewCode = b.newCode
	}

	// -------- CREDENTIALS --------
	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	tm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Ticket.TTL,
		SigningMethod: jwt.SigningMethod(cfg.Ticket.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Ticket.PrivateKey),
		PublicKey:     cloneBytes(cfg.Ticket.PublicKey),
		Issuer:        cfg.Ticket.Issuer,
		Audience:      cfg.Ticket.Audience,
	})
	if err != nil {
		return nil, err
	}
	engine.tickets = tm.WithClock(now)

	// -------- OBSERVABILITY --------
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	engine.flow = engine.buildFlows()
	engine.startSweeper(cfg.Sweep.Interval)

	b.built = true
	return engine, nil
}

func (b *Builder) buildTransports(cfg Config, logger *zap.Logger) (MailTransport, MailTransport, error) {
	if len(b.transports) > 0 {
		var fallback MailTransport
		if len(b.transports) > 1 {
			fallback = b.transports[1]
		}
		return b.transports[0], fallback, nil
	}
	if cfg.Mail.DevLog {
		return mail.NewLogTransport(logger), nil, nil
	}

	smtpCfg := mail.SMTPConfig{
		Host:            cfg.Mail.Host,
		Port:            cfg.Mail.PrimaryPort,
		Security:        mail.ImplicitTLS,
		Username:        cfg.Mail.Username,
		Password:        cfg.Mail.Password,
		ConnectTimeout:  cfg.Mail.ConnectTimeout,
		GreetingTimeout: cfg.Mail.GreetingTimeout,
		SocketTimeout:   cfg.Mail.SocketTimeout,
	}
	primary, err := mail.NewSMTPTransport(smtpCfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Mail.FallbackPort == 0 {
		return primary, nil, nil
	}

	smtpCfg.Port = cfg.Mail.FallbackPort
	smtpCfg.Security = mail.StartTLS
	fallback, err := mail.NewSMTPTransport(smtpCfg)
	if err != nil {
		return nil, nil, err
	}
	return primary, fallback, nil
}
