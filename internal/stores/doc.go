// Package stores provides the short-lived record stores behind account
// provisioning: the expiring one-time code store and the generic session
// carrier that holds registration state between requests.
//
// # Design
//
// Code records are small fixed-layout binary values carrying the code hash,
// an absolute expiry, and a failed-attempt counter. Consumption is atomic:
// the Redis implementation runs a Lua script per take, the memory
// implementation serializes per key through a striped lock. Records outlive
// their expiry by a retention period so that a late check reports "expired"
// instead of "absent"; the first access after expiry deletes them.
//
// The carrier wraps every value with its own absolute expiry and enforces
// it lazily on read, independent of backend eviction.
//
// # What this package must NOT do
//
//   - Import the root provision package or any sibling internal package
//     other than internal.
//   - Store or log plaintext codes.
//   - Compare secrets with non-constant-time comparisons outside Lua.
package stores
