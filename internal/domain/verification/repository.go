package verification

import (
	"context"
	"time"
)

// CodeStore reads the stored code hashes of an account
type CodeStore interface {
	GetCodeHashes(ctx context.Context, userID string) (CodeHashes, error)
}

// PepperSource provides the server-side secret mixed into every code hash
type PepperSource interface {
	Pepper(ctx context.Context) ([]byte, error)
}

// RandomSource provides cryptographically secure random bytes
type RandomSource interface {
	Random(ctx context.Context, n int) ([]byte, error)
}

// AttemptRepository defines the interface for verification attempt tracking
type AttemptRepository interface {
	// LogAttempt records a verification attempt
	LogAttempt(ctx context.Context, attempt *Attempt) error

	// GetFailedAttemptsCount counts failed attempts of a user since the given time
	GetFailedAttemptsCount(ctx context.Context, userID string, since time.Time) (int, error)
}

// SecurityEventRepository defines the interface for security audit logging
type SecurityEventRepository interface {
	LogSecurityEvent(ctx context.Context, event *SecurityEvent) error
}
