// Package middleware adapts HTTP requests for the provision engine.
//
//   - [Ticket] lifts the bearer registration ticket into the context.
//   - [RequestContext] tags the context with a request id and client IP so
//     audit events can be correlated.
//
// # What this package must NOT do
//
//   - Parse or verify tickets (the engine does that).
//   - Make registration decisions. A missing ticket is passed through.
package middleware
