package provision_test

import (
	"context"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/provision"
)

// cmdCounter is a go-redis hook that counts round-trips.
type cmdCounter struct {
	commands atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() { h.commands.Store(0) }

func (h *cmdCounter) Count() int64 { return h.commands.Load() }

type nopTransport struct{}

func (nopTransport) Name() string                                       { return "nop" }
func (nopTransport) Send(context.Context, provision.MailMessage) error { return nil }
func (nopTransport) Probe(context.Context) error                        { return nil }

func newCountedEngine(t *testing.T) (*provision.Engine, *miniredis.Miniredis, *cmdCounter) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	counter := &cmdCounter{}
	rdb.AddHook(counter)

	cfg := provision.DefaultConfig()
	cfg.Ticket.PrivateKey = []byte(strings.Repeat("b", 32))
	cfg.Mail.SenderAddress = "noreply@isu.ac.in"
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Sweep.Interval = 0

	engine, err := provision.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithMailTransports(nopTransport{}).
		WithCodeGenerator(func(int) (string, error) { return "135790", nil }).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	// warm the pool and load every script before anything is measured
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())
	require.NoError(t, engine.SendCode(ctx, "warmup@isu.ac.in"))
	require.NoError(t, engine.VerifyCode(ctx, "warmup@isu.ac.in", "135790"))
	counter.Reset()
	return engine, mr, counter
}

func TestRedisBudgetSendCode(t *testing.T) {
	engine, _, counter := newCountedEngine(t)
	ctx := context.Background()

	// limiter script plus one SET
	require.NoError(t, engine.SendCode(ctx, "budget@isu.ac.in"))
	require.LessOrEqual(t, counter.Count(), int64(3))

	counter.Reset()
	require.NoError(t, engine.VerifyCode(ctx, "budget@isu.ac.in", "135790"))
	require.LessOrEqual(t, counter.Count(), int64(2))
}

func TestRedisKeysCarryExpiry(t *testing.T) {
	engine, mr, _ := newCountedEngine(t)
	ctx := context.Background()

	status, err := engine.StartRegistration(ctx, "", "keys@isu.ac.in")
	require.NoError(t, err)
	require.NotEmpty(t, status.Ticket)

	keys := mr.Keys()
	require.NotEmpty(t, keys)
	for _, k := range keys {
		require.True(t, strings.HasPrefix(k, "prv:"), "unexpected key %q", k)
		require.Greater(t, mr.TTL(k), time.Duration(0), "key %q has no expiry", k)
	}

	var tagged int
	for _, k := range keys {
		if strings.Contains(k, ":sess:reg:{") {
			tagged++
		}
	}
	require.Equal(t, 1, tagged, "session record must use a hash-tagged key: %v", keys)

	require.NoError(t, engine.ClearRegistration(ctx, status.Ticket))
	for _, k := range mr.Keys() {
		require.NotContains(t, k, ":sess:", "session key %q survived clear", k)
	}
}
