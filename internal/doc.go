// Package internal holds small primitives shared by the provisioning
// subsystems: numeric code generation, secret hashing, and key striping for
// the in-memory stores.
//
// # What this package must NOT do
//
//   - Import the root provision package or any sibling internal package.
//   - Keep mutable package-level state.
package internal
