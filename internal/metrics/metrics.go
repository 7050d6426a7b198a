package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram slot.
type MetricID uint16

const (
	MetricCodeIssued MetricID = iota
	MetricCodeRateLimited
	MetricDeliveryFailed
	MetricDeliveryFallback
	MetricVerifySuccess
	MetricVerifyNotFound
	MetricVerifyExpired
	MetricVerifyMismatch
	MetricVerifyAttemptsExceeded
	MetricSequenceViolation
	MetricSessionExpired
	MetricPasswordRejected
	MetricPhrasePassed
	MetricPhraseFailed
	MetricRegistrationCompleted
	MetricRegistrationConflict
	MetricAlreadyRegistered
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginIncomplete
	MetricSweepRemoved
	MetricDeliveryLatency
	MetricIDCount
)

const (
	HistBucketCount = 8
	cacheLineSize   = 64
)

// Config toggles collection.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

type histogram struct {
	buckets [HistBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and latency histograms. A nil or disabled
// Metrics ignores every write.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	histograms    [MetricIDCount]histogram
}

// Snapshot is a point-in-time copy.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= MetricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records d in the histogram of id. Only latency ids accept samples.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricDeliveryLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[BucketIndex(d)], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if id == MetricDeliveryLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, HistBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricDeliveryLatency].buckets[i])
		}
		s.Histograms[MetricDeliveryLatency] = buckets
	}
	return s
}

// BucketIndex maps a delivery duration onto the bounds
// 0.1s 0.25s 0.5s 1s 2.5s 5s 10s +Inf.
func BucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 100:
		return 0
	case ms <= 250:
		return 1
	case ms <= 500:
		return 2
	case ms <= 1000:
		return 3
	case ms <= 2500:
		return 4
	case ms <= 5000:
		return 5
	case ms <= 10000:
		return 6
	default:
		return 7
	}
}
