package decision

// Decision is the binary outcome of an access evaluation.
type Decision string

// Decision outcomes.
const (
	Allow Decision = "ALLOW"
	Deny  Decision = "DENY"
)

// Reason is the machine-readable explanation attached to a verdict.
// Every DENY carries the reason of the first failing check; ALLOW
// always carries ReasonOK.
type Reason string

// Verdict reasons, grouped by the check that produces them.
const (
	ReasonOK Reason = "OK"

	// Credential resolution and auth mode matching.
	ReasonUnknownCredential       Reason = "UNKNOWN_CREDENTIAL"
	ReasonCredentialInactive      Reason = "CREDENTIAL_INACTIVE"
	ReasonCredentialOwnerMismatch Reason = "CREDENTIAL_OWNER_MISMATCH"
	ReasonNoAuthRuleConfigured    Reason = "NO_AUTH_RULE_CONFIGURED"
	ReasonInvalidAuthMode         Reason = "INVALID_AUTH_MODE"
	ReasonAuthModeNotSatisfied    Reason = "AUTH_MODE_NOT_SATISFIED"

	// Grant resolution.
	ReasonNoAccessRule    Reason = "NO_ACCESS_RULE"
	ReasonOutsideSchedule Reason = "OUTSIDE_SCHEDULE"

	// Threshold comparison.
	ReasonNoThresholdConfigured Reason = "NO_THRESHOLD_CONFIGURED"
	ReasonInsufficientLevel     Reason = "INSUFFICIENT_LEVEL"

	// Movement checks.
	ReasonAntipassbackViolation Reason = "ANTIPASSBACK_VIOLATION"
	ReasonInterlockBlocked      Reason = "INTERLOCK_BLOCKED"

	// Engine-level failures.
	ReasonUnknownAccessPoint Reason = "UNKNOWN_ACCESS_POINT"
	ReasonNotReady           Reason = "NOT_READY"
	ReasonTimeout            Reason = "TIMEOUT"
)

// SecurityEvent reports whether a denial reason indicates a possible
// security incident rather than a plain authorization miss. These
// denials additionally publish a core event for monitoring.
func (r Reason) SecurityEvent() bool {
	switch r {
	case ReasonAntipassbackViolation, ReasonInterlockBlocked, ReasonCredentialOwnerMismatch:
		return true
	}
	return false
}
