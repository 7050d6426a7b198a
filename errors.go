package provision

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	// ErrValidation reports malformed email, code, password or phrase input.
	ErrValidation = errors.New("validation failed")
	// ErrRateLimited reports throttled code issuance.
	ErrRateLimited = errors.New("rate limited")
	// ErrDelivery reports that no mail transport delivered the code.
	ErrDelivery = errors.New("code delivery failed")
	// ErrExpired reports a code used after its lifetime.
	ErrExpired = errors.New("code expired")
	// ErrMismatch reports a wrong code or wrong phrase words.
	ErrMismatch = errors.New("mismatch")
	// ErrNotFound reports that no code is outstanding for the address.
	ErrNotFound = errors.New("no code outstanding")
	// ErrAttemptsExceeded reports that a code was burned by too many wrong guesses.
	ErrAttemptsExceeded = errors.New("verification attempts exceeded")
	// ErrSequenceViolation reports a registration step taken out of order or
	// without a live session. The session is cleared.
	ErrSequenceViolation = errors.New("registration sequence violation")
	// ErrConflict reports a finalization race with an incomplete account.
	ErrConflict = errors.New("account conflict")
	// ErrAlreadyRegistered diverts a registration to login.
	ErrAlreadyRegistered = errors.New("account already registered")
	// ErrInvalidCredentials is returned by Login for unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountIncomplete is returned by Login for accounts that never finished registration.
	ErrAccountIncomplete = errors.New("account registration incomplete")
	// ErrUnavailable wraps storage and backend faults.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrEngineNotReady is returned by a nil or unwired engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// MaxMessageLength caps user-facing messages.
const MaxMessageLength = 200

var defaultMessages = map[error]string{
	ErrValidation:         "Invalid input.",
	ErrRateLimited:        "Too many requests. Please try again later.",
	ErrDelivery:           "Could not send the verification email. Please try again.",
	ErrExpired:            "OTP expired. Please request a new code.",
	ErrMismatch:           "Invalid verification code.",
	ErrNotFound:           "No OTP found. Please request a new code.",
	ErrAttemptsExceeded:   "Too many incorrect attempts. Please request a new code.",
	ErrSequenceViolation:  "Your registration session has expired. Please start again.",
	ErrConflict:           "This account is already being registered. Please sign in or start again.",
	ErrAlreadyRegistered:  "This email is already registered. Please sign in.",
	ErrInvalidCredentials: "Invalid email or password.",
	ErrAccountIncomplete:  "Registration for this account was not completed.",
	ErrUnavailable:        "Service temporarily unavailable. Please try again.",
	ErrEngineNotReady:     "Service temporarily unavailable. Please try again.",
}

var labels = map[error]string{
	ErrValidation:         "validation",
	ErrRateLimited:        "rate_limited",
	ErrDelivery:           "delivery",
	ErrExpired:            "expired",
	ErrMismatch:           "mismatch",
	ErrNotFound:           "not_found",
	ErrAttemptsExceeded:   "attempts_exceeded",
	ErrSequenceViolation:  "sequence_violation",
	ErrConflict:           "conflict",
	ErrAlreadyRegistered:  "already_registered",
	ErrInvalidCredentials: "invalid_credentials",
	ErrAccountIncomplete:  "account_incomplete",
	ErrUnavailable:        "unavailable",
	ErrEngineNotReady:     "unavailable",
}

// Error is the typed failure returned by Engine operations. Kind is one of
// the Err* sentinels above, so errors.Is(err, ErrRateLimited) works.
type Error struct {
	Kind       error
	Message    string
	RetryAfter time.Duration
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.Error() + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Kind.Error() + ": " + e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind error, message string, retryAfter time.Duration, cause error) error {
	if kind == nil {
		kind = ErrUnavailable
	}
	if message == "" {
		message = defaultMessages[kind]
	}
	return &Error{Kind: kind, Message: message, RetryAfter: retryAfter, Cause: cause}
}

// Describe returns a stable label and a sanitized user-facing message for
// err. Causes never reach the message.
func Describe(err error) (label, message string) {
	if err == nil {
		return "", ""
	}

	var typed *Error
	if errors.As(err, &typed) {
		return labelOf(typed.Kind), sanitizeMessage(typed.Message)
	}
	for kind, l := range labels {
		if errors.Is(err, kind) {
			return l, sanitizeMessage(defaultMessages[kind])
		}
	}
	return "unavailable", defaultMessages[ErrUnavailable]
}

// RetryAfter returns the wait hint carried by err, if any.
func RetryAfter(err error) time.Duration {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.RetryAfter
	}
	return 0
}

func labelOf(kind error) string {
	if l, ok := labels[kind]; ok {
		return l
	}
	return "unavailable"
}

func sanitizeMessage(msg string) string {
	msg = strings.NewReplacer("<", "", ">", "").Replace(msg)
	msg = strings.TrimSpace(msg)
	if len(msg) <= MaxMessageLength {
		return msg
	}
	cut := MaxMessageLength
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
