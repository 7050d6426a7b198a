package provision

import "context"

// Login checks credentials against a completed account and stamps its
// last-login time. Unknown email and wrong password both return
// ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, email, password string) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}
	return e.flow.Login(ctx, email, password)
}

// verifyPassword flags hashes made under weaker argon2 costs. Accounts are
// never rewritten after creation, so the hash is only reported.
func (e *Engine) verifyPassword(password, hash string) (bool, error) {
	ok, err := e.passwordHash.Verify(password, hash)
	if ok && e.passwordHash.Outdated(hash) {
		e.logger.Info("account password hash uses outdated argon2 costs")
	}
	return ok, err
}
