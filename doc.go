// Package provision runs account provisioning for the campus app: emailed
// one-time codes, a step-by-step registration with a recovery phrase, and
// password login for finished accounts.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// provision is the public surface. It exposes [Engine], [Builder], [Config] and
// value types ([RegistrationStatus], [MetricsSnapshot], [MailProbe]). Flow
// orchestration, code storage, rate limiting, mail delivery and audit
// dispatch live under internal/ and are never exported.
//
// # Sessions
//
// A registration session is named by a signed ticket returned from every
// registration call. Presenting a ticket for a step ahead of the session,
// after expiry or after tampering clears the session and fails with
// [ErrSequenceViolation]. Repeating a finished step fails with
// [ErrValidation] and keeps the session.
//
// # Storage
//
// Without [Builder.WithRedis] every store lives in process memory and a
// background sweeper purges expired entries. With Redis, the limiter, codes,
// sessions and accounts share the client and rely on key TTLs.
package provision
