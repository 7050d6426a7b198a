// provision-loadtest drives code issuance and verification through an
// in-process engine and reports latency percentiles per phase.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/provision"
)

// discardTransport accepts every message.
type discardTransport struct {
	sent atomic.Int64
}

func (t *discardTransport) Name() string { return "discard" }

func (t *discardTransport) Send(context.Context, provision.MailMessage) error {
	t.sent.Add(1)
	return nil
}

func (t *discardTransport) Probe(context.Context) error { return nil }

func main() {
	var (
		identities  int
		concurrency int
		backend     string
		redisAddr   string
		prefix      string
	)
	flagSet := pflag.NewFlagSet("provision-loadtest", pflag.ExitOnError)
	flagSet.IntVar(&identities, "identities", 20000, "distinct emails to issue and verify codes for")
	flagSet.IntVar(&concurrency, "concurrency", 128, "number of concurrent workers")
	flagSet.StringVar(&backend, "backend", "memory", "store backend: memory or redis")
	flagSet.StringVar(&redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	flagSet.StringVar(&prefix, "prefix", "loadtest", "redis key prefix")
	_ = flagSet.Parse(os.Args[1:])

	if identities <= 0 || concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "identities and concurrency must be > 0")
		os.Exit(2)
	}

	cfg := provision.DefaultConfig()
	cfg.Ticket.PrivateKey = []byte(strings.Repeat("L", 32))
	cfg.Mail.SenderAddress = "loadtest@localhost"
	cfg.Redis.Prefix = prefix
	cfg.Audit.Enabled = false

	const fixedCode = "424242"
	transport := &discardTransport{}
	builder := provision.New().
		WithConfig(cfg).
		WithMailTransports(transport).
		WithCodeGenerator(func(int) (string, error) { return fixedCode, nil })

	switch backend {
	case "memory":
		fmt.Println("using in-memory stores")
	case "redis":
		client, cleanup, err := redisClient(redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		builder = builder.WithRedis(client)
	default:
		fmt.Fprintf(os.Stderr, "unknown backend %q\n", backend)
		os.Exit(2)
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx := context.Background()
	emails := make([]string, identities)
	for i := range emails {
		emails[i] = fmt.Sprintf("load-%d@isu.ac.in", i)
	}

	issueStats := runPhase(emails, concurrency, func(email string) error {
		return engine.SendCode(ctx, email)
	})
	verifyStats := runPhase(emails, concurrency, func(email string) error {
		return engine.VerifyCode(ctx, email, fixedCode)
	})

	fmt.Println("---- results ----")
	printStats("issue", issueStats)
	printStats("verify", verifyStats)
	fmt.Printf("mail: sent=%d\n", transport.sent.Load())

	snap := engine.MetricsSnapshot()
	fmt.Printf("codes issued=%d verified=%d\n",
		snap.Counters[provision.MetricCodeIssued],
		snap.Counters[provision.MetricVerifySuccess],
	)
	if buckets, ok := snap.Histograms[provision.MetricDeliveryLatency]; ok {
		fmt.Printf("delivery histogram: %v\n", buckets)
	}
}

func redisClient(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	fmt.Printf("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }, nil
}

// runPhase calls op once per email across concurrency workers.
func runPhase(emails []string, concurrency int, op func(email string) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, len(emails))
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(emails) {
					return
				}
				t0 := time.Now()
				err := op(emails[i])
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
