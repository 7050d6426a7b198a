package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/provision"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot provision.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() provision.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := provision.MetricsSnapshot{
		Counters:   make(map[provision.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[provision.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

// findPoint returns the data point of name whose key attribute equals
// value; an empty key matches the first point.
func findPoint(rm metricdata.ResourceMetrics, name, key, value string) (int64, bool) {
	match := func(set attribute.Set) bool {
		if key == "" {
			return true
		}
		v, ok := set.Value(attribute.Key(key))
		return ok && v.AsString() == value
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					if match(dp.Attributes) {
						return dp.Value, true
					}
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					if match(dp.Attributes) {
						return dp.Value, true
					}
				}
			}
		}
	}
	return 0, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newMeter()
	meter := provider.Meter("provision-test")

	src := &fakeSource{
		snapshot: provision.MetricsSnapshot{
			Counters: map[provision.MetricID]uint64{
				provision.MetricCodeIssued:       3,
				provision.MetricVerifyMismatch:   2,
				provision.MetricDeliveryFallback: 1,
			},
			Histograms: map[provision.MetricID][]uint64{
				provision.MetricDeliveryLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	checks := []struct {
		name, key, value string
		want             int64
	}{
		{"provision_code_issue_total", "result", "delivered", 3},
		{"provision_code_issue_total", "result", "rate_limited", 0},
		{"provision_code_verify_total", "outcome", "mismatch", 2},
		{"provision_delivery_fallback_total", "", "", 1},
		{"provision_delivery_latency_seconds_bucket", "le", "0.5", 3},
		{"provision_delivery_latency_seconds_bucket", "le", "+Inf", 8},
		{"provision_delivery_latency_seconds_count", "", "", 8},
		{"provision_audit_dropped_total", "", "", 1},
	}
	for _, c := range checks {
		got, ok := findPoint(rm, c.name, c.key, c.value)
		if !ok || got != c.want {
			t.Fatalf("%s{%s=%q} = %d (found %v), want %d", c.name, c.key, c.value, got, ok, c.want)
		}
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newMeter()
	meter := provider.Meter("provision-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newMeter()
	meter := provider.Meter("provision-test")

	src := &fakeSource{
		snapshot: provision.MetricsSnapshot{
			Counters: map[provision.MetricID]uint64{
				provision.MetricLoginSuccess: 1,
			},
			Histograms: map[provision.MetricID][]uint64{
				provision.MetricDeliveryLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[provision.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
