// Package otel publishes provision engine metrics as OpenTelemetry
// instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per outcome family
// (with the outcome as an attribute) and per standalone counter. The
// delivery latency histogram becomes a bucket gauge keyed by an "le"
// attribute plus a count gauge. A single callback reads
// [provision.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
