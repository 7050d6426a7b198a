package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/provision"
	"github.com/MrEthical07/provision/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() provision.MetricsSnapshot
	AuditDropped() uint64
}

// series is one observation: an engine counter, the instrument it feeds
// and the attribute set that distinguishes it within a family.
type series struct {
	id         provision.MetricID
	instrument metric.Int64ObservableCounter
	attrs      metric.ObserveOption
}

type observedHistogram struct {
	id      provision.MetricID
	buckets metric.Int64ObservableGauge
	bounds  [8]metric.ObserveOption
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes engine metrics through observable instruments.
// Outcome families become one counter with an attribute per outcome.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	series       []series
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter observes engine on every collection cycle.
func NewOTelExporter(meter metric.Meter, engine *provision.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource observes any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, fam := range internaldefs.Families {
		ins, err := meter.Int64ObservableCounter(fam.Name, metric.WithDescription(fam.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", fam.Name, err)
		}
		observables = append(observables, ins)
		for _, m := range fam.Members {
			exporter.series = append(exporter.series, series{
				id:         m.ID,
				instrument: ins,
				attrs:      metric.WithAttributes(attribute.String(fam.Label, m.Value)),
			})
		}
	}

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		observables = append(observables, ins)
		exporter.series = append(exporter.series, series{id: def.ID, instrument: ins})
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription("Cumulative bucket count keyed by upper bound."))
		if err != nil {
			return nil, fmt.Errorf("create bucket gauge %s: %w", def.Name, err)
		}
		h.buckets = buckets
		for i, le := range internaldefs.HistogramBounds {
			h.bounds[i] = metric.WithAttributes(attribute.String("le", le))
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription("Total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create count gauge %s: %w", def.Name, err)
		}
		h.count = count
		observables = append(observables, buckets, count)
		exporter.histograms = append(exporter.histograms, h)
	}

	auditDropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, s := range e.series {
		v := int64(snapshot.Counters[s.id])
		if s.attrs == nil {
			observer.ObserveInt64(s.instrument, v)
			continue
		}
		observer.ObserveInt64(s.instrument, v, s.attrs)
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i, v := range cumulative {
			observer.ObserveInt64(h.buckets, int64(v), h.bounds[i])
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
