package provision

import (
	internalmetrics "github.com/MrEthical07/provision/internal/metrics"
)

// MetricID identifies a counter or histogram in the in-process metrics.
type MetricID = internalmetrics.MetricID

const (
	MetricCodeIssued             = internalmetrics.MetricCodeIssued
	MetricCodeRateLimited        = internalmetrics.MetricCodeRateLimited
	MetricDeliveryFailed         = internalmetrics.MetricDeliveryFailed
	MetricDeliveryFallback       = internalmetrics.MetricDeliveryFallback
	MetricVerifySuccess          = internalmetrics.MetricVerifySuccess
	MetricVerifyNotFound         = internalmetrics.MetricVerifyNotFound
	MetricVerifyExpired          = internalmetrics.MetricVerifyExpired
	MetricVerifyMismatch         = internalmetrics.MetricVerifyMismatch
	MetricVerifyAttemptsExceeded = internalmetrics.MetricVerifyAttemptsExceeded
	MetricSequenceViolation      = internalmetrics.MetricSequenceViolation
	MetricSessionExpired         = internalmetrics.MetricSessionExpired
	MetricPasswordRejected       = internalmetrics.MetricPasswordRejected
	MetricPhrasePassed           = internalmetrics.MetricPhrasePassed
	MetricPhraseFailed           = internalmetrics.MetricPhraseFailed
	MetricRegistrationCompleted  = internalmetrics.MetricRegistrationCompleted
	MetricRegistrationConflict   = internalmetrics.MetricRegistrationConflict
	MetricAlreadyRegistered      = internalmetrics.MetricAlreadyRegistered
	MetricLoginSuccess           = internalmetrics.MetricLoginSuccess
	MetricLoginFailure           = internalmetrics.MetricLoginFailure
	MetricLoginIncomplete        = internalmetrics.MetricLoginIncomplete
	MetricSweepRemoved           = internalmetrics.MetricSweepRemoved
	MetricDeliveryLatency        = internalmetrics.MetricDeliveryLatency
)

// Metrics holds atomic counters and the delivery latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a Metrics instance. When Enabled is false every
// operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
