package otp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/provision/internal/limiters"
	"github.com/MrEthical07/provision/internal/mail"
	"github.com/MrEthical07/provision/internal/stores"
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

type captureDelivery struct {
	err  error
	sent []mail.Message
}

func (c *captureDelivery) Deliver(_ context.Context, msg mail.Message) (mail.Result, error) {
	if c.err != nil {
		return mail.Result{FellBack: true, Transport: "STARTTLS (port 587)"}, c.err
	}
	c.sent = append(c.sent, msg)
	return mail.Result{Delivered: true, Transport: "SSL (port 465)"}, nil
}

type harness struct {
	clock    *fakeClock
	delivery *captureDelivery
	codes    *stores.MemoryCodeStore
	svc      *Service
	issued   []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:    &fakeClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)},
		delivery: &captureDelivery{},
	}
	h.codes = stores.NewMemoryCodeStore(time.Hour, h.clock.Now)
	limiter := limiters.NewMemoryIssuanceLimiter(limiters.IssuanceConfig{
		Window:      15 * time.Minute,
		MaxAttempts: 3,
		Cooldown:    2 * time.Minute,
	}, h.clock.Now)
	h.svc = NewService(Config{
		TTL:               10 * time.Minute,
		MaxVerifyAttempts: 5,
		Subject:           "Your CIVORAA Verification Code",
		FromName:          "CIVORAA",
		FromAddress:       "noreply@civoraa.test",
	}, limiter, h.codes, h.delivery, nil)

	codes := []string{"123456", "000042", "987654", "555555"}
	h.svc.NewCode = func(int) (string, error) {
		c := codes[len(h.issued)%len(codes)]
		h.issued = append(h.issued, c)
		return c, nil
	}
	return h
}

const student = "new.student@isu.ac.in"

func TestIssueDeliversRenderedMessage(t *testing.T) {
	h := newHarness(t)
	out, err := h.svc.Issue(context.Background(), student)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != IssueOK || !out.Delivery.Delivered {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(h.delivery.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(h.delivery.sent))
	}
	msg := h.delivery.sent[0]
	if msg.To != student || msg.Subject != "Your CIVORAA Verification Code" {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	if !strings.Contains(msg.Text, "123456") || !strings.Contains(msg.Text, "10 minutes") {
		t.Fatalf("text body missing code or ttl: %q", msg.Text)
	}
	if !strings.Contains(msg.HTML, "123456") || !strings.Contains(msg.HTML, "Sent to "+student) {
		t.Fatalf("html body missing code or recipient: %q", msg.HTML)
	}
}

func TestIssueRateLimited(t *testing.T) {
	h := newHarness(t)
	_, _ = h.svc.Issue(context.Background(), student)
	h.clock.Advance(time.Minute)

	out, err := h.svc.Issue(context.Background(), student)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != IssueRateLimited || out.RetryAfter != time.Minute {
		t.Fatalf("expected rate limit with 1m wait, got %+v", out)
	}
	if len(h.issued) != 1 {
		t.Fatal("no code may be generated for a throttled request")
	}
}

func TestIssueDeliveryFailureRollsBackCode(t *testing.T) {
	h := newHarness(t)
	h.delivery.err = errors.New("mail: delivery failed: 535 auth")

	out, err := h.svc.Issue(context.Background(), student)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != IssueDeliveryFailed || !strings.Contains(out.Reason, "535 auth") {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if h.codes.Len() != 0 {
		t.Fatal("undelivered code must be removed")
	}
	if st, _ := h.svc.Verify(context.Background(), student, "123456"); st != VerifyNotFound {
		t.Fatalf("expected not found after rollback, got %v", st)
	}
}

func TestVerifySingleUse(t *testing.T) {
	h := newHarness(t)
	_, _ = h.svc.Issue(context.Background(), student)

	if st, err := h.svc.Verify(context.Background(), student, "123456"); err != nil || st != VerifyOK {
		t.Fatalf("expected ok, got %v err=%v", st, err)
	}
	if st, _ := h.svc.Verify(context.Background(), student, "123456"); st != VerifyNotFound {
		t.Fatalf("expected not found on reuse, got %v", st)
	}
}

func TestReissueInvalidatesPreviousCode(t *testing.T) {
	h := newHarness(t)
	_, _ = h.svc.Issue(context.Background(), student)
	h.clock.Advance(2 * time.Minute)
	if out, _ := h.svc.Issue(context.Background(), student); out.Status != IssueOK {
		t.Fatalf("second issue refused: %+v", out)
	}

	st, _ := h.svc.Verify(context.Background(), student, "123456")
	if st == VerifyOK {
		t.Fatal("old code must never verify after reissue")
	}
	if st, _ := h.svc.Verify(context.Background(), student, "000042"); st != VerifyOK {
		t.Fatalf("new code must verify, got %v", st)
	}
}

func TestVerifyExpiredAtTTL(t *testing.T) {
	h := newHarness(t)
	_, _ = h.svc.Issue(context.Background(), student)
	h.clock.Advance(10 * time.Minute)

	if st, _ := h.svc.Verify(context.Background(), student, "123456"); st != VerifyExpired {
		t.Fatalf("expected expired, got %v", st)
	}
}

func TestVerifyAttemptCap(t *testing.T) {
	h := newHarness(t)
	_, _ = h.svc.Issue(context.Background(), student)

	for i := 0; i < 4; i++ {
		if st, _ := h.svc.Verify(context.Background(), student, "111111"); st != VerifyMismatch {
			t.Fatalf("attempt %d: expected mismatch, got %v", i+1, st)
		}
	}
	if st, _ := h.svc.Verify(context.Background(), student, "111111"); st != VerifyAttemptsExceeded {
		t.Fatalf("expected attempts exceeded, got %v", st)
	}
	if st, _ := h.svc.Verify(context.Background(), student, "123456"); st != VerifyNotFound {
		t.Fatalf("code must be gone after cap, got %v", st)
	}
}

func TestCodesAreScopedToIdentifier(t *testing.T) {
	h := newHarness(t)
	_, _ = h.svc.Issue(context.Background(), student)
	if st, _ := h.svc.Verify(context.Background(), "other@isu.ac.in", "123456"); st != VerifyNotFound {
		t.Fatalf("expected not found for another identifier, got %v", st)
	}
}

func TestStatusStrings(t *testing.T) {
	if IssueDeliveryFailed.String() != "delivery_failed" || VerifyAttemptsExceeded.String() != "attempts_exceeded" {
		t.Fatal("unexpected status labels")
	}
}
