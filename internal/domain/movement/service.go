package movement

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/hirosato/guarded-funds/internal/domain/account"
	"github.com/hirosato/guarded-funds/internal/domain/errors"
)

// BalanceReader reads a fresh balance snapshot
type BalanceReader interface {
	Snapshot(ctx context.Context, userID string) (account.Snapshot, error)
}

// Service drives the wizard for stateless callers. The client sends the
// operation and the step it is on; the service replays the earlier steps
// and then performs one advance.
type Service struct {
	balances BalanceReader
	deps     Deps
}

// NewService creates a new movement service
func NewService(balances BalanceReader, deps Deps) *Service {
	return &Service{
		balances: balances,
		deps:     deps,
	}
}

// Advance validates every step up to req.Step and advances once from there.
// Earlier steps are re-validated, so codes are checked again on the
// submitting call. Errors carry the step the wizard stopped on.
func (s *Service) Advance(ctx context.Context, userID string, req *AdvanceRequest) (*AdvanceResult, error) {
	if req.Step == 0 {
		req.Step = StepDetails
	}
	last := LastStep(req.Operation.Kind)
	if req.Step < StepDetails || req.Step > last {
		return nil, errors.NewValidationError(fmt.Sprintf("step must be between 1 and %d", last))
	}

	snapshot, err := s.balances.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if snapshot.Status == account.Suspended {
		return nil, errors.NewAuthorizationError("Account is suspended. Please contact support.")
	}

	op := req.Operation
	seq := NewSequencer(userID, &op, snapshot, s.deps)

	for seq.Step() < req.Step {
		if err := seq.Advance(ctx); err != nil {
			return nil, withStep(err, seq.Step())
		}
	}

	if err := seq.Advance(ctx); err != nil {
		return nil, withStep(err, seq.Step())
	}

	return &AdvanceResult{
		Step:      seq.Step(),
		LastStep:  seq.LastStep(),
		Done:      seq.Done(),
		Quote:     seq.Quote(),
		Operation: op,
		Entry:     seq.Entry(),
	}, nil
}

// Retreat returns the step before req.Step
func (s *Service) Retreat(req *RetreatRequest) Step {
	return Retreat(req.Step)
}

func withStep(err error, step Step) error {
	var appErr errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.WithDetail("step", int(step))
	}
	return err
}
