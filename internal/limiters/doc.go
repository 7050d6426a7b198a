// Package limiters provides the code-issuance throttle that sits in front of
// one-time code delivery.
//
// # Policy
//
// Each identifier owns one record {count, windowStart, lastAttempt}. An
// admission is refused while the cooldown since the previous admission has
// not elapsed, or while the window already holds MaxAttempts admissions. The
// window restarts once now-windowStart exceeds Window.
//
// Two implementations share the same decision function:
//   - [MemoryIssuanceLimiter]: striped map, one mutex per stripe.
//   - [RedisIssuanceLimiter]: a single Lua script per admission, so concurrent
//     requests for one identifier are serialized by Redis.
//
// # What this package must NOT do
//
//   - Import the root provision package.
//   - Decide what a rejection means for the caller; it only reports the wait.
package limiters
