package provision

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testEmail    = "student@isu.ac.in"
	testPassword = "Campus@2025x"
)

var sixDigits = regexp.MustCompile(`\b\d{6}\b`)

type captureTransport struct {
	mu   sync.Mutex
	name string
	fail error
	sent []MailMessage
}

func (t *captureTransport) Name() string { return t.name }

func (t *captureTransport) Send(_ context.Context, msg MailMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return t.fail
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *captureTransport) Probe(context.Context) error { return t.fail }

func (t *captureTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func (t *captureTransport) lastCode(tb testing.TB) string {
	tb.Helper()
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sent) == 0 {
		tb.Fatalf("no message captured on %s", t.name)
	}
	code := sixDigits.FindString(t.sent[len(t.sent)-1].Text)
	if code == "" {
		tb.Fatalf("no code in message body")
	}
	return code
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEngine struct {
	*Engine
	clock    *testClock
	primary  *captureTransport
	fallback *captureTransport
	mr       *miniredis.Miniredis
}

type engineOption func(*Builder, *Config)

func withRedisBackend(t *testing.T, te *testEngine) engineOption {
	return func(b *Builder, _ *Config) {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("miniredis: %v", err)
		}
		t.Cleanup(mr.Close)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		te.mr = mr
		b.WithRedis(client)
	}
}

func newTestEngine(t *testing.T, opts ...func(*testEngine) engineOption) *testEngine {
	t.Helper()
	te := &testEngine{
		clock:    newTestClock(),
		primary:  &captureTransport{name: "primary"},
		fallback: &captureTransport{name: "fallback"},
	}

	cfg := validTestConfig()
	cfg.Sweep.Interval = 0
	b := New()
	for _, opt := range opts {
		opt(te)(b, &cfg)
	}
	engine, err := b.WithConfig(cfg).
		WithClock(te.clock.Now).
		WithMailTransports(te.primary, te.fallback).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	te.Engine = engine
	return te
}

func redisBackend(t *testing.T) func(*testEngine) engineOption {
	return func(te *testEngine) engineOption { return withRedisBackend(t, te) }
}

func withConfig(mutate func(*Config)) func(*testEngine) engineOption {
	return func(*testEngine) engineOption {
		return func(_ *Builder, cfg *Config) { mutate(cfg) }
	}
}

func withAudit(sink AuditSink) func(*testEngine) engineOption {
	return func(*testEngine) engineOption {
		return func(b *Builder, cfg *Config) {
			cfg.Audit.Enabled = true
			cfg.Audit.BufferSize = 64
			cfg.Audit.DropIfFull = false
			b.WithAuditSink(sink)
		}
	}
}

func answersFor(words []string, positions []int) []PhraseAnswer {
	out := make([]PhraseAnswer, 0, len(positions))
	for _, p := range positions {
		out = append(out, PhraseAnswer{Position: p, Word: words[p-1]})
	}
	return out
}
