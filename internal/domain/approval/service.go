package approval

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/ledger"
)

// Repository applies review decisions to stored entries
type Repository interface {
	// Settle marks a pending entry completed and applies its balance change
	// in one transaction. It fails with INSUFFICIENT_BALANCE when a debit no
	// longer fits the balance, and with CONFLICT when the entry is no longer pending.
	Settle(ctx context.Context, entry *ledger.Entry, reviewer string, at time.Time) error

	// Close moves a pending entry to a terminal status without touching balances
	Close(ctx context.Context, entry *ledger.Entry, status ledger.Status, reviewer string, at time.Time) error
}

// EntryReader finds entries for review
type EntryReader interface {
	GetEntryByStatus(ctx context.Context, status ledger.Status, entryID string) (*ledger.Entry, error)
	ListByStatus(ctx context.Context, status ledger.Status, limit int32, nextToken string) (*ledger.ListResponse, error)
}

// Service is the admin-side review of pending entries. Balances only
// change here, and only when an entry leaves pending as completed.
type Service struct {
	repo    Repository
	entries EntryReader
	now     func() time.Time
}

// NewService creates a new approval service
func NewService(repo Repository, entries EntryReader) *Service {
	return &Service{
		repo:    repo,
		entries: entries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListPending returns the review queue, oldest first
func (s *Service) ListPending(ctx context.Context, limit int32, nextToken string) (*ledger.ListResponse, error) {
	return s.entries.ListByStatus(ctx, ledger.Pending, limit, nextToken)
}

// Approve completes a pending entry and applies it to the balance. Balance
// sufficiency is re-checked atomically with the status change.
func (s *Service) Approve(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error) {
	entry, err := s.pending(ctx, entryID, reviewer)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := s.repo.Settle(ctx, entry, reviewer, at); err != nil {
		return nil, err
	}

	return reviewed(entry, ledger.Completed, reviewer, at), nil
}

// Reject closes a pending entry as rejected
func (s *Service) Reject(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error) {
	return s.close(ctx, entryID, reviewer, ledger.Rejected)
}

// Fail closes a pending entry as failed
func (s *Service) Fail(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error) {
	return s.close(ctx, entryID, reviewer, ledger.Failed)
}

func (s *Service) close(ctx context.Context, entryID, reviewer string, status ledger.Status) (*ledger.Entry, error) {
	entry, err := s.pending(ctx, entryID, reviewer)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := s.repo.Close(ctx, entry, status, reviewer, at); err != nil {
		return nil, err
	}

	return reviewed(entry, status, reviewer, at), nil
}

func (s *Service) pending(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error) {
	if entryID == "" {
		return nil, errors.NewValidationError("entry ID is required")
	}
	if reviewer == "" {
		return nil, errors.NewValidationError("reviewer is required")
	}

	entry, err := s.entries.GetEntryByStatus(ctx, ledger.Pending, entryID)
	if stderrors.Is(err, errors.ErrNotFound) {
		return nil, s.notPending(ctx, entryID, err)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// notPending tells an entry that was already reviewed apart from one that
// does not exist.
func (s *Service) notPending(ctx context.Context, entryID string, notFound error) error {
	for _, status := range []ledger.Status{ledger.Completed, ledger.Rejected, ledger.Failed} {
		entry, err := s.entries.GetEntryByStatus(ctx, status, entryID)
		if err == nil {
			return errors.NewConflictError(fmt.Sprintf("entry %s is already %s", entryID, entry.Status))
		}
		if !stderrors.Is(err, errors.ErrNotFound) {
			return err
		}
	}
	return notFound
}

func reviewed(entry *ledger.Entry, status ledger.Status, reviewer string, at time.Time) *ledger.Entry {
	out := *entry
	out.Status = status
	out.ReviewedBy = reviewer
	out.ReviewedAt = &at
	out.UpdatedAt = at
	return &out
}
