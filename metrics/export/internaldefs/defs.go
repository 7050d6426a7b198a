package internaldefs

import (
	"github.com/MrEthical07/provision"
)

// CounterDef names one engine counter exported on its own.
type CounterDef struct {
	ID   provision.MetricID
	Name string
	Help string
}

// Member is one labeled series of a Family.
type Member struct {
	ID    provision.MetricID
	Value string
}

// Family groups counters that partition one event by outcome, so they are
// exported as a single metric with one label.
type Family struct {
	Name    string
	Help    string
	Label   string
	Members []Member
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   provision.MetricID
	Name string
	Help string
}

// Families lists the labeled counter families in render order.
var Families = []Family{
	{
		Name:  "provision_code_issue_total",
		Help:  "Code requests by result.",
		Label: "result",
		Members: []Member{
			{ID: provision.MetricCodeIssued, Value: "delivered"},
			{ID: provision.MetricCodeRateLimited, Value: "rate_limited"},
			{ID: provision.MetricDeliveryFailed, Value: "delivery_failed"},
		},
	},
	{
		Name:  "provision_code_verify_total",
		Help:  "Code verifications by outcome.",
		Label: "outcome",
		Members: []Member{
			{ID: provision.MetricVerifySuccess, Value: "success"},
			{ID: provision.MetricVerifyNotFound, Value: "not_found"},
			{ID: provision.MetricVerifyExpired, Value: "expired"},
			{ID: provision.MetricVerifyMismatch, Value: "mismatch"},
			{ID: provision.MetricVerifyAttemptsExceeded, Value: "attempts_exceeded"},
		},
	},
	{
		Name:  "provision_phrase_challenge_total",
		Help:  "Recovery phrase challenges by result.",
		Label: "result",
		Members: []Member{
			{ID: provision.MetricPhrasePassed, Value: "passed"},
			{ID: provision.MetricPhraseFailed, Value: "failed"},
		},
	},
	{
		Name:  "provision_registration_total",
		Help:  "Registration terminal outcomes.",
		Label: "outcome",
		Members: []Member{
			{ID: provision.MetricRegistrationCompleted, Value: "completed"},
			{ID: provision.MetricRegistrationConflict, Value: "conflict"},
			{ID: provision.MetricAlreadyRegistered, Value: "already_registered"},
		},
	},
	{
		Name:  "provision_login_total",
		Help:  "Logins by result.",
		Label: "result",
		Members: []Member{
			{ID: provision.MetricLoginSuccess, Value: "success"},
			{ID: provision.MetricLoginFailure, Value: "failure"},
			{ID: provision.MetricLoginIncomplete, Value: "incomplete"},
		},
	},
}

// CounterDefs lists the counters that belong to no family.
var CounterDefs = []CounterDef{
	{ID: provision.MetricDeliveryFallback, Name: "provision_delivery_fallback_total", Help: "Codes delivered through the fallback route."},
	{ID: provision.MetricSequenceViolation, Name: "provision_sequence_violation_total", Help: "Registration steps rejected as out of order."},
	{ID: provision.MetricSessionExpired, Name: "provision_session_expired_total", Help: "Registration calls against an expired session."},
	{ID: provision.MetricPasswordRejected, Name: "provision_password_rejected_total", Help: "Passwords rejected by policy or confirmation."},
	{ID: provision.MetricSweepRemoved, Name: "provision_sweep_removed_total", Help: "Expired in-memory entries purged by the sweeper."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: provision.MetricDeliveryLatency, Name: "provision_delivery_latency_seconds", Help: "Mail delivery latency, fallback included."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "provision_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Audit events dropped by the dispatcher."

// HistogramBounds are the upper bounds in seconds of the eight buckets.
var HistogramBounds = []string{
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"10",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding or
// truncating as needed.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
