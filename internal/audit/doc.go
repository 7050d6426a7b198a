// Package audit dispatches provisioning audit events asynchronously.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, zap, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: structured record of one provisioning transition.
//
// This package owns buffering and sink delivery. Which events are emitted
// is decided by the engine and the flow functions.
package audit
