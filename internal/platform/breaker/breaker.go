package breaker

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/verification"
)

// Config holds the breaker thresholds
type Config struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
	MinRequests         uint32
	FailureRatio        float64
}

// DefaultConfig trips after 5 consecutive failures, or half of at least 10
// requests failing, and probes again after 30 seconds.
func DefaultConfig() Config {
	return Config{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
		MinRequests:         10,
		FailureRatio:        0.5,
	}
}

// New creates a circuit breaker that logs its state changes
func New(name string, cfg Config, logger *slog.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio)
		},
		// A missing record is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || stderrors.Is(err, errors.ErrNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
}

// CodeStore guards code hash lookups with a circuit breaker. While the
// breaker is open lookups fail immediately, which the validator reports
// as LookupUnavailable.
type CodeStore struct {
	next    verification.CodeStore
	breaker *gobreaker.CircuitBreaker
}

// NewCodeStore wraps a code store with a breaker
func NewCodeStore(next verification.CodeStore, breaker *gobreaker.CircuitBreaker) *CodeStore {
	return &CodeStore{
		next:    next,
		breaker: breaker,
	}
}

// GetCodeHashes implements verification.CodeStore
func (s *CodeStore) GetCodeHashes(ctx context.Context, userID string) (verification.CodeHashes, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.next.GetCodeHashes(ctx, userID)
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return verification.CodeHashes{}, fmt.Errorf("code store %s is unavailable: %w", s.breaker.Name(), err)
		}
		return verification.CodeHashes{}, err
	}

	return result.(verification.CodeHashes), nil
}
