package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the ticket signature algorithm.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

// ticketUse marks a token as a registration ticket so tokens minted by the
// same key for anything else are refused.
const ticketUse = "registration"

var (
	ErrTicketInvalid = errors.New("invalid registration ticket")
)

// Config controls ticket signing and validation.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	// PrivateKey is the HS256 secret or the Ed25519 private key (raw or PEM).
	PrivateKey []byte
	// PublicKey is optional for Ed25519; it is derived from PrivateKey when
	// empty.
	PublicKey []byte
	Issuer    string
	Audience  string
	Leeway    time.Duration
}

// Manager issues and parses tickets. Keys are decoded once at
// construction. Safe for concurrent use.
type Manager struct {
	ttl      time.Duration
	issuer   string
	audience string
	leeway   time.Duration

	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	now       func() time.Time
}

// TicketClaims carries the registration session id.
type TicketClaims struct {
	SID string `json:"sid"`
	Use string `json:"use"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and decodes its keys.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	m := &Manager{
		ttl:      cfg.TTL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
		now:      time.Now,
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 requires a secret of at least 32 bytes")
		}
		secret := append([]byte(nil), cfg.PrivateKey...)
		m.method, m.signKey, m.verifyKey = jwt.SigningMethodHS256, secret, secret
	case MethodEd25519:
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		pub, _ := priv.Public().(ed25519.PublicKey)
		if len(cfg.PublicKey) > 0 {
			if pub, err = parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
			if !pub.Equal(priv.Public()) {
				return nil, errors.New("ed25519 public key does not match private key")
			}
		}
		m.method, m.signKey, m.verifyKey = jwt.SigningMethodEdDSA, priv, pub
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	return m, nil
}

// WithClock returns a copy of m that reads time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

// Algorithm reports the JOSE alg of issued tickets.
func (m *Manager) Algorithm() string {
	return m.method.Alg()
}

// Issue signs a ticket for sid.
func (m *Manager) Issue(sid string) (string, error) {
	if sid == "" {
		return "", errors.New("empty session id")
	}
	now := m.now()
	claims := TicketClaims{
		SID: sid,
		Use: ticketUse,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}
	return jwt.NewWithClaims(m.method, claims).SignedString(m.signKey)
}

// Parse validates a ticket and returns its session id. Every failure
// wraps ErrTicketInvalid.
func (m *Manager) Parse(ticket string) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.leeway > 0 {
		options = append(options, jwt.WithLeeway(m.leeway))
	}
	if m.issuer != "" {
		options = append(options, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		options = append(options, jwt.WithAudience(m.audience))
	}

	var claims TicketClaims
	_, err := jwt.NewParser(options...).ParseWithClaims(ticket, &claims, func(*jwt.Token) (any, error) {
		return m.verifyKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTicketInvalid, err)
	}
	if claims.Use != ticketUse {
		return "", fmt.Errorf("%w: not a registration ticket", ErrTicketInvalid)
	}
	if claims.SID == "" {
		return "", fmt.Errorf("%w: missing session id", ErrTicketInvalid)
	}
	return claims.SID, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
