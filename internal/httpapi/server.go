package httpapi

import (
	"context"
	"net/http"

	"github.com/MrEthical07/provision"
	"github.com/MrEthical07/provision/metrics/export/prometheus"
	"github.com/MrEthical07/provision/middleware"
	"go.uber.org/zap"
)

// Engine is the slice of *provision.Engine the HTTP surface uses.
type Engine interface {
	SendCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) error
	ProbeMail(ctx context.Context) provision.MailProbe
	Health(ctx context.Context) provision.HealthStatus

	StartRegistration(ctx context.Context, previousTicket, email string) (provision.RegistrationStatus, error)
	ResendRegistrationCode(ctx context.Context, ticket string) (provision.RegistrationStatus, error)
	VerifyRegistrationCode(ctx context.Context, ticket, code string) (provision.RegistrationStatus, error)
	SetRegistrationPassword(ctx context.Context, ticket, email, password, confirm string) (provision.RegistrationStatus, error)
	ShowRegistrationPhrase(ctx context.Context, ticket string) (provision.RegistrationStatus, error)
	ConfirmPhraseSaved(ctx context.Context, ticket string) (provision.RegistrationStatus, error)
	VerifyRegistrationPhrase(ctx context.Context, ticket string, answers []provision.PhraseAnswer) (provision.RegistrationStatus, error)
	FinalizeRegistration(ctx context.Context, ticket string) (provision.Account, error)
	RegistrationStatus(ctx context.Context, ticket string) (provision.RegistrationStatus, error)
	ClearRegistration(ctx context.Context, ticket string) error

	Login(ctx context.Context, email, password string) (provision.Account, error)

	MetricsSnapshot() provision.MetricsSnapshot
	AuditDropped() uint64
}

// Options tunes the HTTP surface.
type Options struct {
	Service    string
	Version    string
	TrustProxy bool
}

// Server holds the route handlers.
type Server struct {
	engine  Engine
	logger  *zap.SugaredLogger
	opts    Options
	metrics *prometheus.PrometheusExporter
}

// New returns the fully wrapped handler tree.
func New(engine Engine, logger *zap.SugaredLogger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Service == "" {
		opts.Service = "otp"
	}
	if opts.Version == "" {
		opts.Version = "1.0"
	}
	s := &Server{
		engine:  engine,
		logger:  logger,
		opts:    opts,
		metrics: prometheus.NewPrometheusExporterFromSource(engine),
	}
	return s.Routes()
}

// Routes mounts every handler on a ServeMux and wraps it with request
// context, security headers and request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /send-otp", s.handleSendOTP)
	mux.HandleFunc("POST /verify-otp", s.handleVerifyOTP)
	mux.HandleFunc("GET /smtp-check", s.handleSMTPCheck)

	mux.HandleFunc("POST /register/start", s.handleRegisterStart)
	mux.HandleFunc("POST /register/resend", s.handleRegisterResend)
	mux.HandleFunc("POST /register/verify", s.handleRegisterVerify)
	mux.HandleFunc("POST /register/password", s.handleRegisterPassword)
	mux.HandleFunc("GET /register/phrase", s.handleRegisterPhrase)
	mux.HandleFunc("POST /register/phrase/confirm", s.handleRegisterPhraseConfirm)
	mux.HandleFunc("POST /register/phrase/verify", s.handleRegisterPhraseVerify)
	mux.HandleFunc("POST /register/finalize", s.handleRegisterFinalize)
	mux.HandleFunc("GET /register/status", s.handleRegisterStatus)
	mux.HandleFunc("DELETE /register/session", s.handleRegisterClear)

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.Handle("GET /metrics", s.metrics.Handler())

	var h http.Handler = mux
	h = middleware.Ticket(h)
	h = SecurityHeadersMiddleware()(h)
	h = middleware.RequestContext(s.opts.TrustProxy)(h)
	h = LoggingMiddleware(s.logger)(h)
	return h
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": s.opts.Service,
		"version": s.opts.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.engine.Health(r.Context())
	status := http.StatusOK
	if !health.RedisAvailable {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"ok":             health.RedisAvailable,
		"backend":        health.Backend,
		"redisLatencyMs": float64(health.RedisLatency.Microseconds()) / 1000.0,
	})
}
