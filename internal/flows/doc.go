// Package flows contains the pure-function orchestrators behind every
// Engine operation: standalone code issuance, the registration state
// machine, and login.
//
// Each flow function (RunStartRegistration, RunVerifyRegistrationCode,
// RunFinalizeRegistration, ...) accepts a typed dependency struct and has no
// side effects beyond those dependencies. The Engine builds the dependency
// structs once and stays thin.
//
// # Registration state machine
//
//	email → code_sent → code_verified → password_set → phrase_shown
//	      → phrase_prompt_ready → phrase_verified → completed
//
// A trigger is accepted only from its source step. Repeating a trigger the
// session has already passed is a validation error that leaves the session
// as is. A trigger attempted ahead of its source step, or against a missing
// or expired session, is a sequence violation: the session is cleared and
// the caller must restart at email.
// Guard failures inside the right step (wrong code, weak password, wrong
// challenge words) leave the session untouched.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root provision package.
//   - Perform I/O directly; all I/O goes through dependency functions.
package flows
