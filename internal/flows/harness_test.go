package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/provision/internal/accounts"
	"github.com/MrEthical07/provision/internal/limiters"
	"github.com/MrEthical07/provision/internal/mail"
	"github.com/MrEthical07/provision/internal/otp"
	"github.com/MrEthical07/provision/internal/phrase"
	"github.com/MrEthical07/provision/internal/stores"
	"github.com/MrEthical07/provision/internal/wallet"
	"github.com/MrEthical07/provision/password"
)

var (
	errNotReady         = errors.New("not ready")
	errValidation       = errors.New("validation")
	errRateLimited      = errors.New("rate limited")
	errDelivery         = errors.New("delivery")
	errNotFound         = errors.New("not found")
	errExpired          = errors.New("expired")
	errMismatch         = errors.New("mismatch")
	errAttemptsExceeded = errors.New("attempts exceeded")
	errUnavailable      = errors.New("unavailable")
	errSequence         = errors.New("sequence violation")
	errConflict         = errors.New("conflict")
	errRegistered       = errors.New("already registered")
	errCredentials      = errors.New("invalid credentials")
	errIncomplete       = errors.New("incomplete")
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// codeTransport records every delivered message so tests can read codes.
type codeTransport struct {
	mu   sync.Mutex
	fail bool
	sent []mail.Message
}

func (t *codeTransport) Name() string { return "SSL (port 465)" }

func (t *codeTransport) Send(_ context.Context, msg mail.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail {
		return errors.New("connection refused")
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *codeTransport) Probe(context.Context) error { return nil }

func (t *codeTransport) lastCode(tb testing.TB) string {
	tb.Helper()
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sent) == 0 {
		tb.Fatalf("no message delivered")
	}
	text := t.sent[len(t.sent)-1].Text
	for _, field := range strings.Fields(text) {
		if len(field) == 6 && isDigits(field) {
			return field
		}
	}
	tb.Fatalf("no code in message body: %q", text)
	return ""
}

func (t *codeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// failingAccounts wraps a store and fails Create while failCreate is set.
type failingAccounts struct {
	*accounts.MemoryStore
	failCreate bool
}

func (f *failingAccounts) Create(ctx context.Context, acct accounts.Account) error {
	if f.failCreate {
		return fmt.Errorf("%w: write timeout", accounts.ErrUnavailable)
	}
	return f.MemoryStore.Create(ctx, acct)
}

type auditRecord struct {
	event   string
	success bool
	email   string
	sid     string
	meta    map[string]string
}

type harness struct {
	clock     *fakeClock
	transport *codeTransport
	carrier   *stores.MemoryCarrier
	accounts  *failingAccounts
	hasher    *password.Argon2
	svc       Service

	mu     sync.Mutex
	audits []auditRecord
	counts map[int]int
	seq    int
}

const (
	mCodeIssued = iota + 1
	mRateLimited
	mDeliveryFailed
	mFallback
	mVerifyOK
	mVerifyNotFound
	mVerifyExpired
	mVerifyMismatch
	mVerifyExceeded
	mSequence
	mPasswordRejected
	mPhrasePassed
	mPhraseFailed
	mCompleted
	mConflict
	mRegistered
	mLoginOK
	mLoginFail
	mLoginIncomplete
	mSessionExpired
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:     &fakeClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)},
		transport: &codeTransport{},
		counts:    map[int]int{},
	}
	h.carrier = stores.NewMemoryCarrier(h.clock.Now)
	h.accounts = &failingAccounts{MemoryStore: accounts.NewMemoryStore()}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	h.hasher = hasher

	limiter := limiters.NewMemoryIssuanceLimiter(limiters.IssuanceConfig{
		Window:      15 * time.Minute,
		MaxAttempts: 3,
		Cooldown:    time.Minute,
	}, h.clock.Now)
	codes := stores.NewMemoryCodeStore(time.Hour, h.clock.Now)
	gateway := mail.NewGateway(h.transport, nil, nil)
	otpSvc := otp.NewService(otp.Config{
		TTL:               10 * time.Minute,
		MaxVerifyAttempts: 5,
		Subject:           "Your CIVORAA Verification Code",
		FromName:          "CIVORAA",
		FromAddress:       "noreply@civoraa.test",
	}, limiter, codes, gateway, nil)

	code := CodeDeps{
		AllowedSuffix: "@isu.ac.in",
		Digits:        6,
		Issue:         otpSvc.Issue,
		Verify:        otpSvc.Verify,
		MetricInc:     h.inc,
		EmitAudit:     h.emit,
		Metrics: CodeMetrics{
			CodeIssued:             mCodeIssued,
			CodeRateLimited:        mRateLimited,
			DeliveryFailed:         mDeliveryFailed,
			DeliveryFallback:       mFallback,
			VerifySuccess:          mVerifyOK,
			VerifyNotFound:         mVerifyNotFound,
			VerifyExpired:          mVerifyExpired,
			VerifyMismatch:         mVerifyMismatch,
			VerifyAttemptsExceeded: mVerifyExceeded,
		},
		Events: CodeEvents{CodeIssue: "code_issue", CodeVerify: "code_verify"},
		Errors: CodeErrors{
			EngineNotReady:   errNotReady,
			Validation:       errValidation,
			RateLimited:      errRateLimited,
			Delivery:         errDelivery,
			NotFound:         errNotFound,
			Expired:          errExpired,
			Mismatch:         errMismatch,
			AttemptsExceeded: errAttemptsExceeded,
			Unavailable:      errUnavailable,
		},
	}

	reg := RegistrationDeps{
		SessionTTL: 30 * time.Minute,
		Now:        h.clock.Now,
		NewSessionID: func() string {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.seq++
			return fmt.Sprintf("sid-%d", h.seq)
		},
		Code: code,
		AccountExists: func(ctx context.Context, email string) (bool, error) {
			_, err := h.accounts.Get(ctx, email)
			if errors.Is(err, accounts.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
		GetAccount:    h.accounts.Get,
		CreateAccount: h.accounts.Create,
		CheckPassword: func(pw, confirm string) string {
			if errs := password.CheckPolicy(pw); len(errs) > 0 {
				return errs[0].Error()
			}
			if errs := password.CheckConfirmation(pw, confirm); len(errs) > 0 {
				return errs[0].Error()
			}
			return ""
		},
		HashPassword:    hasher.Hash,
		GeneratePhrase:  phrase.Generate,
		ChoosePositions: phrase.ChoosePositions,
		VerifyPhrase:    phrase.Verify,
		NewWalletTag:    wallet.NewTag,
		LoadSession: func(ctx context.Context, sid string) (Session, bool, error) {
			raw, ok, err := h.carrier.Get(ctx, SessionKey(sid))
			if err != nil || !ok {
				return Session{}, false, err
			}
			var s Session
			if err := json.Unmarshal(raw, &s); err != nil {
				return Session{}, false, nil
			}
			return s, true, nil
		},
		SaveSession: func(ctx context.Context, s Session, ttl time.Duration) error {
			raw, err := json.Marshal(s)
			if err != nil {
				return err
			}
			return h.carrier.Set(ctx, SessionKey(s.ID), raw, ttl)
		},
		LoadPhrase: func(ctx context.Context, sid string) ([]string, bool, error) {
			raw, ok, err := h.carrier.Get(ctx, PhraseKey(sid))
			if err != nil || !ok {
				return nil, false, err
			}
			return strings.Fields(string(raw)), true, nil
		},
		SavePhrase: func(ctx context.Context, sid string, words []string, ttl time.Duration) error {
			return h.carrier.Set(ctx, PhraseKey(sid), []byte(strings.Join(words, " ")), ttl)
		},
		DropPhrase: func(ctx context.Context, sid string) error {
			return h.carrier.ClearAll(ctx, PhraseKey(sid))
		},
		ClearSession: func(ctx context.Context, sid string) error {
			return h.carrier.ClearAll(ctx, SessionKey(sid), PhraseKey(sid))
		},
		Metrics: RegistrationMetrics{
			SequenceViolation: mSequence,
			SessionExpired:    mSessionExpired,
			PasswordRejected:  mPasswordRejected,
			PhrasePassed:      mPhrasePassed,
			PhraseFailed:      mPhraseFailed,
			Completed:         mCompleted,
			Conflict:          mConflict,
			AlreadyRegistered: mRegistered,
		},
		Events: RegistrationEvents{
			Start:             "registration_start",
			Password:          "registration_password",
			PhraseConfirmed:   "registration_phrase_confirmed",
			PhraseChallenge:   "registration_phrase_challenge",
			Finalize:          "registration_finalize",
			SequenceViolation: "registration_sequence_violation",
			Cleared:           "registration_cleared",
		},
		Errors: RegistrationErrors{
			EngineNotReady:    errNotReady,
			Validation:        errValidation,
			Mismatch:          errMismatch,
			SequenceViolation: errSequence,
			Conflict:          errConflict,
			AlreadyRegistered: errRegistered,
			Unavailable:       errUnavailable,
		},
	}

	login := LoginDeps{
		AllowedSuffix:  "@isu.ac.in",
		Now:            h.clock.Now,
		GetAccount:     h.accounts.Get,
		TouchLogin:     h.accounts.TouchLogin,
		VerifyPassword: hasher.Verify,
		MetricInc:      h.inc,
		EmitAudit:      h.emit,
		Metrics:        LoginMetrics{LoginSuccess: mLoginOK, LoginFailure: mLoginFail, LoginIncomplete: mLoginIncomplete},
		Events:         LoginEvents{Login: "login"},
		Errors: LoginErrors{
			EngineNotReady:     errNotReady,
			Validation:         errValidation,
			InvalidCredentials: errCredentials,
			Incomplete:         errIncomplete,
			Unavailable:        errUnavailable,
		},
	}

	h.svc = New(Deps{Code: code, Registration: reg, Login: login})
	return h
}

func (h *harness) inc(id int) {
	h.mu.Lock()
	h.counts[id]++
	h.mu.Unlock()
}

func (h *harness) count(id int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[id]
}

func (h *harness) emit(_ context.Context, event string, success bool, email, sid string, _ error, meta func() map[string]string) {
	a := auditRecord{event: event, success: success, email: email, sid: sid}
	if meta != nil {
		a.meta = meta()
	}
	h.mu.Lock()
	h.audits = append(h.audits, a)
	h.mu.Unlock()
}

func (h *harness) audited(event string, success bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, a := range h.audits {
		if a.event == event && a.success == success {
			n++
		}
	}
	return n
}

func (h *harness) phrase(t *testing.T, sid string) []string {
	t.Helper()
	raw, ok, err := h.carrier.Get(context.Background(), PhraseKey(sid))
	if err != nil || !ok {
		t.Fatalf("phrase for %s: ok=%v err=%v", sid, ok, err)
	}
	return strings.Fields(string(raw))
}

func answersFor(words []string, positions []int) []phrase.Answer {
	out := make([]phrase.Answer, 0, len(positions))
	for _, p := range positions {
		out = append(out, phrase.Answer{Position: p, Word: words[p-1]})
	}
	return out
}

const goodPassword = "Campus@2025x"

// advanceToPhraseVerified drives a fresh session up to phrase_verified.
func (h *harness) advanceToPhraseVerified(t *testing.T, email string) string {
	t.Helper()
	ctx := context.Background()
	st, err := h.svc.StartRegistration(ctx, "", email)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	sid := st.SessionID
	if _, err := h.svc.VerifyRegistrationCode(ctx, sid, h.transport.lastCode(t)); err != nil {
		t.Fatalf("verify code: %v", err)
	}
	st, err = h.svc.SetRegistrationPassword(ctx, sid, email, goodPassword, goodPassword)
	if err != nil {
		t.Fatalf("set password: %v", err)
	}
	words := st.Words
	st, err = h.svc.ConfirmPhraseSaved(ctx, sid)
	if err != nil {
		t.Fatalf("confirm saved: %v", err)
	}
	if _, err := h.svc.VerifyRegistrationPhrase(ctx, sid, answersFor(words, st.Positions)); err != nil {
		t.Fatalf("verify phrase: %v", err)
	}
	return sid
}
