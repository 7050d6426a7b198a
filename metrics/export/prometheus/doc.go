// Package prometheus renders provision engine metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps a [provision.Engine] and exposes an
// [http.Handler] for the /metrics route. Outcome families render as one
// labeled metric, e.g. provision_code_verify_total{outcome="expired"};
// the single histogram is provision_delivery_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
