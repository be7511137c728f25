package verification

import (
	"time"
)

// Result is the outcome of a confirmation code check
type Result string

const (
	// Match means the submitted code equals the stored one
	Match Result = "match"
	// Mismatch means the code was empty or wrong
	Mismatch Result = "mismatch"
	// LookupUnavailable means the stored code could not be read, so nothing was compared
	LookupUnavailable Result = "lookup_unavailable"
)

// Stage identifies which of the two account codes is being checked
type Stage string

const (
	// Secondary is the first confirmation code (labelled VAT code in the client)
	Secondary Stage = "secondary"
	// Tertiary is the second confirmation code (labelled IMF code in the client)
	Tertiary Stage = "tertiary"
)

// Label returns the name shown to users for the stage
func (s Stage) Label() string {
	switch s {
	case Secondary:
		return "VAT"
	case Tertiary:
		return "IMF"
	default:
		return string(s)
	}
}

// CodeHashes holds the stored hashes for both codes of an account
type CodeHashes struct {
	Secondary string
	Tertiary  string
}

// For returns the hash for the given stage
func (h CodeHashes) For(stage Stage) string {
	if stage == Tertiary {
		return h.Tertiary
	}
	return h.Secondary
}

// Attempt is an audit record of one code check
type Attempt struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Stage     Stage     `json:"stage"`
	Result    Result    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// SecurityEvent represents a security audit log entry
type SecurityEvent struct {
	ID        string            `json:"id"`
	EventType string            `json:"eventType"` // "verification_success", "verification_failure", "lookup_unavailable", "verification_locked"
	UserID    string            `json:"userId,omitempty"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Severity  string            `json:"severity"` // "low", "medium", "high", "critical"
}

// IssuedCode is a freshly generated code and the hash to store for it
type IssuedCode struct {
	Plain string
	Hash  string
}
