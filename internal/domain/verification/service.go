package verification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hirosato/guarded-funds/internal/domain/errors"
)

// Lockout defaults
const (
	DefaultMaxFailedAttempts   = 5
	DefaultFailedAttemptWindow = 5 * time.Minute
)

// Checker compares a submitted code against the stored one
type Checker interface {
	Check(ctx context.Context, userID string, stage Stage, code string) (Result, error)
}

// Validator checks submitted codes against the hashes in the code store.
// It never returns Match unless a stored hash was read and compared.
type Validator struct {
	store  CodeStore
	pepper PepperSource
}

// NewValidator creates a new code validator
func NewValidator(store CodeStore, pepper PepperSource) *Validator {
	return &Validator{
		store:  store,
		pepper: pepper,
	}
}

// CheckSecondary checks the first confirmation code
func (v *Validator) CheckSecondary(ctx context.Context, userID, code string) Result {
	r, _ := v.Check(ctx, userID, Secondary, code)
	return r
}

// CheckTertiary checks the second confirmation code
func (v *Validator) CheckTertiary(ctx context.Context, userID, code string) Result {
	r, _ := v.Check(ctx, userID, Tertiary, code)
	return r
}

// Check compares code with the stored hash for stage. The returned error is
// the lookup cause when the result is LookupUnavailable.
func (v *Validator) Check(ctx context.Context, userID string, stage Stage, code string) (Result, error) {
	if code == "" {
		return Mismatch, nil
	}

	hashes, err := v.store.GetCodeHashes(ctx, userID)
	if err != nil {
		return LookupUnavailable, err
	}

	stored := hashes.For(stage)
	if stored == "" {
		return LookupUnavailable, fmt.Errorf("no %s code on record for user %s", stage, userID)
	}

	pepper, err := v.pepper.Pepper(ctx)
	if err != nil {
		return LookupUnavailable, err
	}

	if CompareCode(pepper, stored, code) {
		return Match, nil
	}
	return Mismatch, nil
}

// Service wraps code checks with lockout and audit logging
type Service struct {
	checker      Checker
	attemptRepo  AttemptRepository
	securityRepo SecurityEventRepository
	logger       *slog.Logger

	maxFailed int
	window    time.Duration
	now       func() time.Time

	pending sync.WaitGroup
}

// Option configures the Service
type Option func(*Service)

// WithLockout overrides the failed attempt limit and window
func WithLockout(maxFailed int, window time.Duration) Option {
	return func(s *Service) {
		if maxFailed > 0 {
			s.maxFailed = maxFailed
		}
		if window > 0 {
			s.window = window
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new verification service
func NewService(checker Checker, attemptRepo AttemptRepository, securityRepo SecurityEventRepository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		checker:      checker,
		attemptRepo:  attemptRepo,
		securityRepo: securityRepo,
		logger:       logger,
		maxFailed:    DefaultMaxFailedAttempts,
		window:       DefaultFailedAttemptWindow,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify checks a code for the user. A locked user gets a VERIFICATION_LOCKED
// error without the code being compared. Lookup failures are not counted
// against the user.
func (s *Service) Verify(ctx context.Context, userID string, stage Stage, code string) (Result, error) {
	if err := s.checkLockout(ctx, userID); err != nil {
		return Mismatch, err
	}

	result, cause := s.checker.Check(ctx, userID, stage, code)

	switch result {
	case Match:
		s.logAttempt(userID, stage, result, true)
		s.logSecurityEvent("verification_success", userID,
			fmt.Sprintf("%s code verified for user %s", stage.Label(), userID),
			"low", map[string]string{"stage": string(stage)})
	case Mismatch:
		s.logAttempt(userID, stage, result, false)
		s.logSecurityEvent("verification_failure", userID,
			fmt.Sprintf("Wrong %s code for user %s", stage.Label(), userID),
			"medium", map[string]string{"stage": string(stage)})
	case LookupUnavailable:
		reason := ""
		if cause != nil {
			reason = cause.Error()
		}
		s.logger.ErrorContext(ctx, "code lookup unavailable",
			slog.String("user_id", userID),
			slog.String("stage", string(stage)),
			slog.String("error", reason))
		s.logSecurityEvent("lookup_unavailable", userID,
			fmt.Sprintf("Could not read %s code for user %s", stage.Label(), userID),
			"high", map[string]string{"stage": string(stage), "reason": reason})
	}

	return result, nil
}

// Flush waits for pending audit writes. Lambda handlers call it before
// returning so the writes are not frozen with the execution environment.
func (s *Service) Flush() {
	s.pending.Wait()
}

func (s *Service) checkLockout(ctx context.Context, userID string) error {
	if s.attemptRepo == nil {
		return nil
	}

	since := s.now().Add(-s.window)
	failedCount, err := s.attemptRepo.GetFailedAttemptsCount(ctx, userID, since)
	if err != nil {
		// Continue on error, don't block verification
		s.logger.WarnContext(ctx, "failed to count verification attempts",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil
	}

	if failedCount >= s.maxFailed {
		s.logSecurityEvent("verification_locked", userID,
			fmt.Sprintf("User %s locked after %d failed code attempts", userID, failedCount),
			"high", map[string]string{
				"failed_attempts": fmt.Sprintf("%d", failedCount),
				"window":          s.window.String(),
			})
		return apperrors.NewLockedError("Too many incorrect codes. Please try again later.")
	}

	return nil
}

func (s *Service) logSecurityEvent(eventType, userID, message, severity string, metadata map[string]string) {
	if s.securityRepo == nil {
		return // Security logging is optional
	}

	event := &SecurityEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		UserID:    userID,
		Message:   message,
		Metadata:  metadata,
		Timestamp: s.now(),
		Severity:  severity,
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.securityRepo.LogSecurityEvent(context.Background(), event); err != nil {
			s.logger.Warn("failed to log security event",
				slog.String("event_type", eventType),
				slog.String("error", err.Error()))
		}
	}()
}

func (s *Service) logAttempt(userID string, stage Stage, result Result, success bool) {
	if s.attemptRepo == nil {
		return
	}

	attempt := &Attempt{
		ID:        uuid.New().String(),
		UserID:    userID,
		Stage:     stage,
		Result:    result,
		Timestamp: s.now(),
		Success:   success,
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.attemptRepo.LogAttempt(context.Background(), attempt); err != nil {
			s.logger.Warn("failed to log verification attempt",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	}()
}
