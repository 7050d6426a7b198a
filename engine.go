package provision

import (
	"sync"
	"time"

	"github.com/MrEthical07/provision/internal/accounts"
	internalaudit "github.com/MrEthical07/provision/internal/audit"
	"github.com/MrEthical07/provision/internal/flows"
	"github.com/MrEthical07/provision/internal/limiters"
	"github.com/MrEthical07/provision/internal/mail"
	"github.com/MrEthical07/provision/internal/otp"
	"github.com/MrEthical07/provision/internal/stores"
	"github.com/MrEthical07/provision/jwt"
	"github.com/MrEthical07/provision/password"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Engine runs the provisioning pipeline. It is safe for concurrent use;
// build it once with New().Build().
type Engine struct {
	config Config
	logger *zap.Logger
	now    func() time.Time

	redis    redis.UniversalClient
	limiter  limiters.IssuanceLimiter
	codes    stores.CodeStore
	carrier  stores.Carrier
	accounts accounts.Store
	gateway  *mail.Gateway
	otp      *otp.Service

	passwordHash *password.Argon2
	tickets      *jwt.Manager

	audit   *internalaudit.Dispatcher
	metrics *Metrics
	flow    flows.Service

	sweepers  []func() int
	stopSweep chan struct{}
	sweepWG   sync.WaitGroup
	closeOnce sync.Once
}

// Close stops the background sweeper and drains the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.stopSweep != nil {
			close(e.stopSweep)
			e.sweepWG.Wait()
		}
		if e.audit != nil {
			e.audit.Close()
		}
	})
}

// AuditDropped reports audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flow.Initialized()
}

func (e *Engine) startSweeper(interval time.Duration) {
	if interval <= 0 || len(e.sweepers) == 0 {
		return
	}
	e.stopSweep = make(chan struct{})
	e.sweepWG.Add(1)
	go func() {
		defer e.sweepWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Sweep()
			case <-e.stopSweep:
				return
			}
		}
	}()
}

// Sweep purges expired entries from in-memory stores and returns how many
// were removed. Redis-backed engines rely on key TTLs and report zero.
func (e *Engine) Sweep() int {
	if e == nil {
		return 0
	}
	removed := 0
	for _, sweep := range e.sweepers {
		removed += sweep()
	}
	if removed > 0 {
		e.metrics.Add(MetricSweepRemoved, uint64(removed))
		e.logger.Debug("swept expired entries", zap.Int("removed", removed))
	}
	return removed
}
