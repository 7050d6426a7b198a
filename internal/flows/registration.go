package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/provision/internal/accounts"
	"github.com/MrEthical07/provision/internal/phrase"
)

type RegistrationMetrics struct {
	SequenceViolation int
	SessionExpired    int
	PasswordRejected  int
	PhrasePassed      int
	PhraseFailed      int
	Completed         int
	Conflict          int
	AlreadyRegistered int
}

type RegistrationEvents struct {
	Start             string
	Password          string
	PhraseConfirmed   string
	PhraseChallenge   string
	Finalize          string
	SequenceViolation string
	Cleared           string
}

type RegistrationErrors struct {
	EngineNotReady    error
	Validation        error
	Mismatch          error
	SequenceViolation error
	Conflict          error
	AlreadyRegistered error
	Unavailable       error
}

type RegistrationDeps struct {
	SessionTTL    time.Duration
	PhraseLength  int
	ChallengeSize int

	Now          func() time.Time
	NewSessionID func() string

	Code CodeDeps

	AccountExists func(context.Context, string) (bool, error)
	GetAccount    func(context.Context, string) (accounts.Account, error)
	CreateAccount func(context.Context, accounts.Account) error

	CheckPassword func(password, confirm string) string
	HashPassword  func(string) (string, error)

	GeneratePhrase  func(int) ([]string, error)
	ChoosePositions func(n, k int) ([]int, error)
	VerifyPhrase    func([]string, []phrase.Answer) bool
	NewWalletTag    func() (string, error)

	LoadSession  func(context.Context, string) (Session, bool, error)
	SaveSession  func(context.Context, Session, time.Duration) error
	LoadPhrase   func(context.Context, string) ([]string, bool, error)
	SavePhrase   func(context.Context, string, []string, time.Duration) error
	DropPhrase   func(context.Context, string) error
	ClearSession func(context.Context, string) error

	Metrics RegistrationMetrics
	Events  RegistrationEvents
	Errors  RegistrationErrors
}

func normalizeRegistrationDeps(deps *RegistrationDeps) {
	normalizeCodeDeps(&deps.Code)
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 30 * time.Minute
	}
	if deps.PhraseLength <= 0 {
		deps.PhraseLength = phrase.DefaultLength
	}
	if deps.ChallengeSize <= 0 {
		deps.ChallengeSize = phrase.DefaultChallenge
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
}

func registrationReady(deps RegistrationDeps) bool {
	return deps.NewSessionID != nil &&
		deps.Code.Issue != nil && deps.Code.Verify != nil &&
		deps.AccountExists != nil && deps.GetAccount != nil && deps.CreateAccount != nil &&
		deps.CheckPassword != nil && deps.HashPassword != nil &&
		deps.GeneratePhrase != nil && deps.ChoosePositions != nil && deps.VerifyPhrase != nil &&
		deps.NewWalletTag != nil &&
		deps.LoadSession != nil && deps.SaveSession != nil &&
		deps.LoadPhrase != nil && deps.SavePhrase != nil && deps.DropPhrase != nil &&
		deps.ClearSession != nil
}

// RunStartRegistration validates email, diverts registered addresses to
// login, issues the first code and opens a fresh session at code_sent.
// previousSID, when set, is cleared first.
func RunStartRegistration(ctx context.Context, previousSID, email string, deps RegistrationDeps) (Status, error) {
	normalizeRegistrationDeps(&deps)
	if !registrationReady(deps) {
		return Status{Step: StepEmail}, deps.Errors.EngineNotReady
	}

	if previousSID != "" {
		if err := deps.ClearSession(ctx, previousSID); err != nil {
			return Status{Step: StepEmail}, deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
		}
	}

	normalized, msg := CheckEmail(email, deps.Code.AllowedSuffix)
	if msg != "" {
		return Status{Step: StepEmail}, deps.Code.NewError(deps.Errors.Validation, msg, 0, nil)
	}

	exists, err := deps.AccountExists(ctx, normalized)
	if err != nil {
		return Status{Step: StepEmail}, deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	if exists {
		deps.Code.MetricInc(deps.Metrics.AlreadyRegistered)
		mapped := deps.Code.NewError(deps.Errors.AlreadyRegistered, "", 0, nil)
		deps.Code.EmitAudit(ctx, deps.Events.Start, false, normalized, "", mapped, nil)
		return Status{Step: StepEmail, Email: normalized}, mapped
	}

	sess := Session{
		ID:    deps.NewSessionID(),
		Email: normalized,
		Step:  StepEmail,
	}
	if err := issueCode(ctx, normalized, sess.ID, deps.Code); err != nil {
		return Status{Step: StepEmail, Email: normalized}, err
	}

	sess.Step = StepCodeSent
	if err := saveSession(ctx, &sess, deps); err != nil {
		return Status{Step: StepEmail, Email: normalized}, err
	}
	deps.Code.EmitAudit(ctx, deps.Events.Start, true, normalized, sess.ID, nil, nil)
	return sess.status(), nil
}

// RunResendRegistrationCode re-issues a code while in code_sent. The new
// code replaces the previous one.
func RunResendRegistrationCode(ctx context.Context, sid string, deps RegistrationDeps) (Status, error) {
	normalizeRegistrationDeps(&deps)
	sess, err := requireStep(ctx, sid, StepCodeSent, deps)
	if err != nil {
		return resumeStatus(sess), err
	}

	if err := issueCode(ctx, sess.Email, sess.ID, deps.Code); err != nil {
		return sess.status(), err
	}
	if err := saveSession(ctx, &sess, deps); err != nil {
		return sess.status(), err
	}
	return sess.status(), nil
}

// RunVerifyRegistrationCode moves code_sent to code_verified.
func RunVerifyRegistrationCode(ctx context.Context, sid, code string, deps RegistrationDeps) (Status, error) {
	normalizeRegistrationDeps(&deps)
	sess, err := requireStep(ctx, sid, StepCodeSent, deps)
	if err != nil {
		return resumeStatus(sess), err
	}

	code = SanitizeInput(code)
	if msg := CheckCode(code, deps.Code.Digits); msg != "" {
		return sess.status(), deps.Code.NewError(deps.Errors.Validation, msg, 0, nil)
	}
	if err := verifyCode(ctx, sess.Email, code, sess.ID, deps.Code); err != nil {
		return sess.status(), err
	}

	sess.OTPVerified = true
	sess.Step = StepCodeVerified
	if err := saveSession(ctx, &sess, deps); err != nil {
		return sess.status(), err
	}
	return sess.status(), nil
}

// RunSetRegistrationPassword accepts a password for the verified email,
// then generates the recovery phrase (password_set → phrase_shown). email
// may be empty; when given it must equal the verified email.
func RunSetRegistrationPassword(ctx context.Context, sid, email, password, confirm string, deps RegistrationDeps) (Status, error) {
	normalizeRegistrationDeps(&deps)
	sess, err := requireStep(ctx, sid, StepCodeVerified, deps)
	if err != nil {
		return resumeStatus(sess), err
	}
	if !sess.OTPVerified {
		return Status{Step: StepEmail}, violation(ctx, sess.ID, sess.Email, "code_not_verified", deps)
	}
	if email != "" && !strings.EqualFold(SanitizeInput(email), sess.Email) {
		return Status{Step: StepEmail}, violation(ctx, sess.ID, sess.Email, "email_mismatch", deps)
	}

	if msg := deps.CheckPassword(password, confirm); msg != "" {
		deps.Code.MetricInc(deps.Metrics.PasswordRejected)
		mapped := deps.Code.NewError(deps.Errors.Validation, msg, 0, nil)
		deps.Code.EmitAudit(ctx, deps.Events.Password, false, sess.Email, sess.ID, mapped, nil)
		return sess.status(), mapped
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		return sess.status(), deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	sess.PasswordEmail = sess.Email
	sess.PasswordHash = hash
	sess.Step = StepPasswordSet

	words, err := deps.GeneratePhrase(deps.PhraseLength)
	if err != nil {
		return sess.status(), deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	if err := deps.SavePhrase(ctx, sess.ID, words, deps.SessionTTL); err != nil {
		return sess.status(), deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	sess.Step = StepPhraseShown
	if err := saveSession(ctx, &sess, deps); err != nil {
		return sess.status(), err
	}

	deps.Code.EmitAudit(ctx, deps.Events.Password, true, sess.Email, sess.ID, nil, nil)
	st := sess.status()
	st.Words = words
	return st, nil
}

// RunShowRegistrationPhrase returns the phrase while in phrase_shown.
func RunShowRegistrationPhrase(ctx context.Context, sid string, deps RegistrationDeps) (Status, error) {
	normalizeRegistrationDeps(&deps)
	sess, err := requireStep(ctx, sid, StepPhraseShown, deps)
	if err != nil {
		return resumeStatus(sess), err
	}
	words, err := requirePhrase(ctx, sess, deps)
	if err != nil {
		return Status{Step: StepEmail}, err
	}
	st := sess.status()
	st.Words = words
	return st, nil
}

// RunConfirmPhraseSaved moves phrase_shown to phrase_prompt_ready and picks
// the challenge positions.
func RunConfirmPhraseSaved(ctx context.Context, sid string, deps RegistrationDeps) (Status, error) {
	normalizeRegistrationDeps(&deps)
	sess, err := requireStep(ctx, sid, StepPhraseShown, deps)
	if err != nil {
		return resumeStatus(sess), err
	}
	words, err := requirePhrase(ctx, sess, deps)
	if err != nil {
		return Status{Step: StepEmail}, err
	}

	positions, err := deps.ChoosePositions(len(words), deps.ChallengeSize)
	if err != nil {
		return sess.status(), deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	if err := deps.SavePhrase(ctx, sess.ID, words, deps.SessionTTL); err != nil {
		return sess.status(), deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	sess.Challenge = positions
	sess.Step = StepPhrasePromptReady
	if err := saveSession(ctx, &sess, deps); err != nil {
		return sess.status(), err
	}
	deps.Code.EmitAudit(ctx, deps.Events.PhraseConfirmed, true, sess.Email, sess.ID, nil, nil)
	return sess.status(), nil
}

// RunVerifyRegistrationPhrase checks the recall challenge. On success the
// phrase is discarded and the session moves to phrase_verified.
func RunVerifyRegistrationPhrase(ctx context.Context, sid string, answers []phrase.Answer, deps RegistrationDeps) (Status, error) {
	normalizeRegistrationDeps(&deps)
	sess, err := requireStep(ctx, sid, StepPhrasePromptReady, deps)
	if err != nil {
		return resumeStatus(sess), err
	}
	words, err := requirePhrase(ctx, sess, deps)
	if err != nil {
		return Status{Step: StepEmail}, err
	}

	if !phrase.Covers(sess.Challenge, answers) {
		return sess.status(), deps.Code.NewError(deps.Errors.Validation, "Please enter a word for every requested position", 0, nil)
	}
	if !deps.VerifyPhrase(words, answers) {
		deps.Code.MetricInc(deps.Metrics.PhraseFailed)
		mapped := deps.Code.NewError(deps.Errors.Mismatch, "Incorrect words. Please try again.", 0, nil)
		deps.Code.EmitAudit(ctx, deps.Events.PhraseChallenge, false, sess.Email, sess.ID, mapped, nil)
		return sess.status(), mapped
	}

	if err := deps.DropPhrase(ctx, sess.ID); err != nil {
		return sess.status(), deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	sess.PhraseVerified = true
	sess.Challenge = nil
	sess.Step = StepPhraseVerified
	if err := saveSession(ctx, &sess, deps); err != nil {
		return sess.status(), err
	}

	deps.Code.MetricInc(deps.Metrics.PhrasePassed)
	deps.Code.EmitAudit(ctx, deps.Events.PhraseChallenge, true, sess.Email, sess.ID, nil, nil)
	return sess.status(), nil
}

// RunFinalizeRegistration writes the account document and clears the
// session. A failed write leaves the session at phrase_verified so the
// call can be retried.
func RunFinalizeRegistration(ctx context.Context, sid string, deps RegistrationDeps) (accounts.Account, error) {
	normalizeRegistrationDeps(&deps)
	sess, err := requireStep(ctx, sid, StepPhraseVerified, deps)
	if err != nil {
		return accounts.Account{}, err
	}
	if !sess.OTPVerified || !sess.PhraseVerified || sess.PasswordHash == "" || sess.PasswordEmail != sess.Email {
		return accounts.Account{}, violation(ctx, sess.ID, sess.Email, "incomplete_session", deps)
	}

	tag, err := deps.NewWalletTag()
	if err != nil {
		return accounts.Account{}, deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	now := deps.Now().UTC()
	acct := accounts.Account{
		Email:              sess.Email,
		PasswordHash:       sess.PasswordHash,
		WalletTag:          tag,
		SeedPhraseVerified: true,
		RegistrationStep:   string(StepCompleted),
		CreatedAt:          now,
		LastLogin:          now,
	}

	err = deps.CreateAccount(ctx, acct)
	if errors.Is(err, accounts.ErrExists) {
		existing, getErr := deps.GetAccount(ctx, sess.Email)
		if getErr != nil {
			return accounts.Account{}, deps.Code.NewError(deps.Errors.Unavailable, "", 0, getErr)
		}
		if existing.RegistrationStep != string(StepCompleted) {
			deps.Code.MetricInc(deps.Metrics.Conflict)
			mapped := deps.Code.NewError(deps.Errors.Conflict, "", 0, nil)
			deps.Code.EmitAudit(ctx, deps.Events.Finalize, false, sess.Email, sess.ID, mapped, nil)
			return accounts.Account{}, mapped
		}
		acct = existing
		err = nil
	}
	if err != nil {
		mapped := deps.Code.NewError(deps.Errors.Unavailable, "Could not complete registration. Please try again.", 0, err)
		deps.Code.EmitAudit(ctx, deps.Events.Finalize, false, sess.Email, sess.ID, mapped, nil)
		return accounts.Account{}, mapped
	}

	if err := deps.ClearSession(ctx, sess.ID); err != nil {
		// finalize is idempotent for completed accounts
		deps.Code.EmitAudit(ctx, deps.Events.Cleared, false, sess.Email, sess.ID, err, nil)
	}
	deps.Code.MetricInc(deps.Metrics.Completed)
	deps.Code.EmitAudit(ctx, deps.Events.Finalize, true, sess.Email, sess.ID, nil, nil)
	return acct, nil
}

// RunRegistrationStatus reports the current step. A missing or expired
// session reads as StepEmail.
func RunRegistrationStatus(ctx context.Context, sid string, deps RegistrationDeps) (Status, error) {
	normalizeRegistrationDeps(&deps)
	if !registrationReady(deps) {
		return Status{Step: StepEmail}, deps.Errors.EngineNotReady
	}
	if sid == "" {
		return Status{Step: StepEmail}, nil
	}
	sess, ok, err := deps.LoadSession(ctx, sid)
	if err != nil {
		return Status{Step: StepEmail}, deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	if !ok {
		return Status{Step: StepEmail}, nil
	}
	return sess.status(), nil
}

// RunClearRegistration removes every key of the session.
func RunClearRegistration(ctx context.Context, sid string, deps RegistrationDeps) error {
	normalizeRegistrationDeps(&deps)
	if !registrationReady(deps) {
		return deps.Errors.EngineNotReady
	}
	if sid == "" {
		return nil
	}
	if err := deps.ClearSession(ctx, sid); err != nil {
		return deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	deps.Code.EmitAudit(ctx, deps.Events.Cleared, true, "", sid, nil, nil)
	return nil
}

func requireStep(ctx context.Context, sid string, want Step, deps RegistrationDeps) (Session, error) {
	if !registrationReady(deps) {
		return Session{}, deps.Errors.EngineNotReady
	}
	if sid == "" {
		return Session{}, violation(ctx, "", "", "no_session", deps)
	}

	sess, ok, err := deps.LoadSession(ctx, sid)
	if err != nil {
		return Session{}, deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	if !ok {
		deps.Code.MetricInc(deps.Metrics.SessionExpired)
		return Session{}, violation(ctx, sid, "", "session_expired", deps)
	}
	sess.ID = sid
	if sess.Email == "" {
		return Session{}, violation(ctx, sid, "", "session_without_email", deps)
	}
	if sess.Step.Past(want) {
		// repeated submit of a finished step; the session stays as is
		return sess, deps.Code.NewError(deps.Errors.Validation, "This step is already complete.", 0, nil)
	}
	if sess.Step != want {
		return Session{}, violation(ctx, sid, sess.Email, "step_"+string(sess.Step)+"_not_"+string(want), deps)
	}
	return sess, nil
}

// resumeStatus is the status reported next to a guard error: the live
// step when the session survived, StepEmail otherwise.
func resumeStatus(sess Session) Status {
	if sess.ID == "" || sess.Step == "" {
		return Status{Step: StepEmail}
	}
	return sess.status()
}

func requirePhrase(ctx context.Context, sess Session, deps RegistrationDeps) ([]string, error) {
	words, ok, err := deps.LoadPhrase(ctx, sess.ID)
	if err != nil {
		return nil, deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	if !ok || len(words) != deps.PhraseLength {
		return nil, violation(ctx, sess.ID, sess.Email, "phrase_expired", deps)
	}
	return words, nil
}

// violation clears the session and returns the sequence error.
func violation(ctx context.Context, sid, email, reason string, deps RegistrationDeps) error {
	if sid != "" {
		if err := deps.ClearSession(ctx, sid); err != nil {
			reason += "+clear_failed"
		}
	}
	deps.Code.MetricInc(deps.Metrics.SequenceViolation)
	mapped := deps.Code.NewError(deps.Errors.SequenceViolation, "", 0, nil)
	deps.Code.EmitAudit(ctx, deps.Events.SequenceViolation, false, email, sid, mapped, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	return mapped
}

func saveSession(ctx context.Context, sess *Session, deps RegistrationDeps) error {
	sess.UpdatedAt = deps.Now().UTC()
	if err := deps.SaveSession(ctx, *sess, deps.SessionTTL); err != nil {
		return deps.Code.NewError(deps.Errors.Unavailable, "", 0, err)
	}
	return nil
}
