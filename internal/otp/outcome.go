package otp

import (
	"time"

	"github.com/MrEthical07/provision/internal/mail"
)

// IssueStatus tags the result of Issue.
type IssueStatus int

const (
	IssueOK IssueStatus = iota
	IssueRateLimited
	IssueDeliveryFailed
)

func (s IssueStatus) String() string {
	switch s {
	case IssueOK:
		return "ok"
	case IssueRateLimited:
		return "rate_limited"
	case IssueDeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}

// IssueOutcome is the tagged result of Issue. RetryAfter is set for
// IssueRateLimited; Reason carries the last transport error for
// IssueDeliveryFailed.
type IssueOutcome struct {
	Status     IssueStatus
	RetryAfter time.Duration
	Delivery   mail.Result
	Reason     string
}

// VerifyStatus tags the result of Verify.
type VerifyStatus int

const (
	VerifyOK VerifyStatus = iota
	VerifyNotFound
	VerifyExpired
	VerifyMismatch
	VerifyAttemptsExceeded
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifyOK:
		return "ok"
	case VerifyNotFound:
		return "not_found"
	case VerifyExpired:
		return "expired"
	case VerifyMismatch:
		return "mismatch"
	case VerifyAttemptsExceeded:
		return "attempts_exceeded"
	default:
		return "unknown"
	}
}
