// Package metrics provides lock-free counters and a delivery latency
// histogram for the provisioning engine.
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically. The histogram uses 8 fixed buckets (0.1s to +Inf). Writes do
// not allocate. Export (Prometheus, OTel) lives in metrics/export and reads
// Snapshot values.
package metrics
