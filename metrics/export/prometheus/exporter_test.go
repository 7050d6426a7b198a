package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/provision"
	"github.com/MrEthical07/provision/metrics/export/internaldefs"
)

type fakeSource struct {
	snapshot provision.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() provision.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: provision.MetricsSnapshot{
			Counters:   map[provision.MetricID]uint64{},
			Histograms: map[provision.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: provision.MetricsSnapshot{
			Counters: map[provision.MetricID]uint64{
				provision.MetricCodeIssued:        7,
				provision.MetricSequenceViolation: 1,
			},
			Histograms: map[provision.MetricID][]uint64{
				provision.MetricDeliveryLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"provision_code_issue_total{result=\"delivered\"} 7",
		"provision_code_issue_total{result=\"rate_limited\"} 0",
		"provision_sequence_violation_total 1",
		"provision_login_total{result=\"success\"} 0",
		"provision_delivery_latency_seconds_bucket{le=\"0.1\"} 1",
		"provision_delivery_latency_seconds_bucket{le=\"+Inf\"} 36",
		"provision_delivery_latency_seconds_count 36",
		"provision_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if exp.Render() != out {
		t.Fatalf("render must be deterministic")
	}
}

func TestEveryCounterIsRendered(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: provision.MetricsSnapshot{
			Counters: map[provision.MetricID]uint64{provision.MetricLoginSuccess: 1},
		},
	})
	out := exp.Render()
	for _, def := range internaldefs.CounterDefs {
		if !strings.Contains(out, "# TYPE "+def.Name+" counter") {
			t.Fatalf("missing %s", def.Name)
		}
	}
	for _, fam := range internaldefs.Families {
		if strings.Count(out, "# TYPE "+fam.Name+" counter") != 1 {
			t.Fatalf("family %s must have exactly one TYPE line", fam.Name)
		}
		for _, m := range fam.Members {
			series := fam.Name + "{" + fam.Label + "=\"" + m.Value + "\"}"
			if !strings.Contains(out, series) {
				t.Fatalf("missing series %s", series)
			}
		}
	}
}

func TestEveryMetricIDExportedOnce(t *testing.T) {
	seen := map[provision.MetricID]int{}
	for _, fam := range internaldefs.Families {
		for _, m := range fam.Members {
			seen[m.ID]++
		}
	}
	for _, def := range internaldefs.CounterDefs {
		seen[def.ID]++
	}
	for _, def := range internaldefs.HistogramDefs {
		seen[def.ID]++
	}
	for id := provision.MetricCodeIssued; id <= provision.MetricDeliveryLatency; id++ {
		if seen[id] != 1 {
			t.Fatalf("metric %d exported %d times", id, seen[id])
		}
	}
}

func TestEscapeLabel(t *testing.T) {
	if got := escapeLabel(`a"b\c`); got != `a\"b\\c` {
		t.Fatalf("unexpected escape %q", got)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: provision.MetricsSnapshot{
			Counters:   map[provision.MetricID]uint64{provision.MetricLoginSuccess: 1},
			Histograms: map[provision.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: provision.MetricsSnapshot{
			Counters: map[provision.MetricID]uint64{
				provision.MetricCodeIssued:            1000,
				provision.MetricVerifySuccess:         800,
				provision.MetricVerifyMismatch:        40,
				provision.MetricRegistrationCompleted: 700,
				provision.MetricLoginSuccess:          5000,
				provision.MetricLoginFailure:          90,
			},
			Histograms: map[provision.MetricID][]uint64{
				provision.MetricDeliveryLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
