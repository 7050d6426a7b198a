// Package password hashes registration passwords with Argon2id and checks
// them against the registration password policy.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The candidate password accepted during registration is hashed as soon as
// it passes [CheckPolicy]; only the hash is held in the session and later
// written to the account document.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other provision package.
//   - Log plaintext passwords.
package password
