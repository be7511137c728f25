package approval

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/ledger"
)

// testStore keeps entries and balances together so settlement can be
// checked the way the real transaction applies it.
type testStore struct {
	entries  map[string]*ledger.Entry
	balances map[string]decimal.Decimal
}

func newTestStore() *testStore {
	return &testStore{
		entries:  make(map[string]*ledger.Entry),
		balances: make(map[string]decimal.Decimal),
	}
}

func (s *testStore) GetEntryByStatus(ctx context.Context, status ledger.Status, entryID string) (*ledger.Entry, error) {
	e, ok := s.entries[entryID]
	if !ok || e.Status != status {
		return nil, errors.NewNotFoundError("pending entry not found")
	}
	copied := *e
	return &copied, nil
}

func (s *testStore) ListByStatus(ctx context.Context, status ledger.Status, limit int32, nextToken string) (*ledger.ListResponse, error) {
	resp := &ledger.ListResponse{}
	for _, e := range s.entries {
		if e.Status == status {
			resp.Entries = append(resp.Entries, *e)
		}
	}
	return resp, nil
}

func (s *testStore) Settle(ctx context.Context, entry *ledger.Entry, reviewer string, at time.Time) error {
	stored := s.entries[entry.ID]
	if stored.Status != ledger.Pending {
		return errors.NewConflictError("entry already reviewed")
	}
	key := entry.UserID + "/" + entry.AccountType
	balance := s.balances[key]
	if entry.Kind.IsDebit() {
		if balance.LessThan(entry.Total) {
			return errors.NewInsufficientBalanceError("Insufficient balance")
		}
		s.balances[key] = balance.Sub(entry.Total)
	} else {
		s.balances[key] = balance.Add(entry.Net())
	}
	stored.Status = ledger.Completed
	stored.ReviewedBy = reviewer
	return nil
}

func (s *testStore) Close(ctx context.Context, entry *ledger.Entry, status ledger.Status, reviewer string, at time.Time) error {
	stored := s.entries[entry.ID]
	if stored.Status != ledger.Pending {
		return errors.NewConflictError("entry already reviewed")
	}
	stored.Status = status
	stored.ReviewedBy = reviewer
	return nil
}

func pendingEntry(id string, kind ledger.Kind, amount, fee string) *ledger.Entry {
	a := decimal.RequireFromString(amount)
	f := decimal.RequireFromString(fee)
	total := a.Add(f)
	if !kind.IsDebit() {
		total = a
	}
	return &ledger.Entry{
		ID:          id,
		UserID:      "user-1",
		Kind:        kind,
		Amount:      a,
		Fee:         f,
		Total:       total,
		Status:      ledger.Pending,
		AccountType: "checking",
	}
}

func TestService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("debit is applied once", func(t *testing.T) {
		store := newTestStore()
		store.entries["e1"] = pendingEntry("e1", ledger.Withdrawal, "100", "1.5")
		store.balances["user-1/checking"] = decimal.NewFromInt(500)
		svc := NewService(store, store)

		entry, err := svc.Approve(ctx, "e1", "admin-1")
		require.NoError(t, err)
		assert.Equal(t, ledger.Completed, entry.Status)
		assert.Equal(t, "admin-1", entry.ReviewedBy)
		require.NotNil(t, entry.ReviewedAt)
		assert.Equal(t, "398.5", store.balances["user-1/checking"].String())

		_, err = svc.Approve(ctx, "e1", "admin-1")
		assert.True(t, stderrors.Is(err, errors.ErrConflict), "got %v", err)
		assert.Contains(t, err.Error(), "already completed")
		assert.Equal(t, "398.5", store.balances["user-1/checking"].String())
	})

	t.Run("unknown entry is not found", func(t *testing.T) {
		store := newTestStore()
		svc := NewService(store, store)
		_, err := svc.Approve(ctx, "missing", "admin-1")
		assert.True(t, stderrors.Is(err, errors.ErrNotFound))
	})

	t.Run("deposit credits the net amount", func(t *testing.T) {
		store := newTestStore()
		store.entries["e2"] = pendingEntry("e2", ledger.Deposit, "100", "2.5")
		svc := NewService(store, store)

		_, err := svc.Approve(ctx, "e2", "admin-1")
		require.NoError(t, err)
		assert.Equal(t, "97.5", store.balances["user-1/checking"].String())
	})

	t.Run("balance is re-checked at approval", func(t *testing.T) {
		store := newTestStore()
		store.entries["e3"] = pendingEntry("e3", ledger.Transfer, "100", "0")
		store.balances["user-1/checking"] = decimal.NewFromInt(40)
		svc := NewService(store, store)

		_, err := svc.Approve(ctx, "e3", "admin-1")
		assert.True(t, stderrors.Is(err, errors.ErrInsufficientBalance))
		assert.Equal(t, ledger.Pending, store.entries["e3"].Status)
		assert.Equal(t, "40", store.balances["user-1/checking"].String())
	})

	t.Run("reviewer required", func(t *testing.T) {
		store := newTestStore()
		svc := NewService(store, store)
		_, err := svc.Approve(ctx, "e1", "")
		assert.True(t, stderrors.Is(err, errors.ErrValidation))
	})
}

func TestService_RejectAndFail(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	store.entries["e1"] = pendingEntry("e1", ledger.Withdrawal, "100", "1.5")
	store.entries["e2"] = pendingEntry("e2", ledger.Transfer, "10", "0")
	store.balances["user-1/checking"] = decimal.NewFromInt(500)
	svc := NewService(store, store)

	entry, err := svc.Reject(ctx, "e1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.Rejected, entry.Status)

	entry, err = svc.Fail(ctx, "e2", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.Failed, entry.Status)

	assert.Equal(t, "500", store.balances["user-1/checking"].String())

	_, err = svc.Reject(ctx, "e2", "admin-1")
	assert.True(t, stderrors.Is(err, errors.ErrConflict))

	pending, err := svc.ListPending(ctx, 10, "")
	require.NoError(t, err)
	assert.Empty(t, pending.Entries)
}
