// Package otp issues and verifies one-time email codes.
//
// [Service.Issue] runs admit → generate → store → deliver, and deletes the
// stored code when delivery fails so that no valid code exists without a
// delivered copy. [Service.Verify] consumes the code. Both return tagged
// outcomes; only backend faults come back as errors.
package otp
