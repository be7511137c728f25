package ledger

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
)

// Service records submitted operations and reads them back
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new ledger service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a draft as a pending entry. It never touches balances.
// Any storage failure is returned as a STORAGE_FAILURE error so the caller
// can keep its operation and retry.
func (s *Service) Submit(ctx context.Context, draft *Draft) (*Entry, error) {
	if draft.UserID == "" || !draft.Kind.Valid() {
		return nil, errors.NewValidationError("entry needs a user and a known kind")
	}

	now := s.now()
	entry := &Entry{
		ID:                ulid.Make().String(),
		UserID:            draft.UserID,
		Kind:              draft.Kind,
		Amount:            draft.Amount,
		Fee:               draft.Fee,
		Total:             draft.Total,
		Status:            Pending,
		Recipient:         draft.Recipient,
		RecipientType:     draft.RecipientType,
		TransferType:      draft.TransferType,
		Method:            draft.Method,
		AccountType:       draft.AccountType,
		Description:       draft.Description,
		Date:              now.Format("2006-01-02"),
		SecondaryVerified: draft.SecondaryVerified,
		TertiaryVerified:  draft.TertiaryVerified,
		RequiresApproval:  true,
		PaymentDetails:    maskPayment(draft),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, errors.NewStorageError("Failed to record the operation. Please try again.", err)
	}

	return entry, nil
}

// Get returns one entry of a user
func (s *Service) Get(ctx context.Context, userID, entryID string) (*Entry, error) {
	if entryID == "" {
		return nil, errors.NewValidationError("entry ID is required")
	}
	return s.repo.GetEntry(ctx, userID, entryID)
}

// ListByUser returns a page of a user's statement
func (s *Service) ListByUser(ctx context.Context, userID string, filter *ListFilter) (*ListResponse, error) {
	if filter == nil {
		filter = &ListFilter{}
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown kind %q", filter.Kind))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown status %q", filter.Status))
	}
	for _, d := range []string{filter.From, filter.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, errors.NewValidationError("dates must use the YYYY-MM-DD format")
		}
	}
	if filter.From != "" && filter.To != "" && filter.From > filter.To {
		return nil, errors.NewValidationError("from must not be after to")
	}
	filter.Limit = clampLimit(filter.Limit)

	return s.repo.ListByUser(ctx, userID, filter)
}

// ListByStatus returns a page of entries in the given status
func (s *Service) ListByStatus(ctx context.Context, status Status, limit int32, nextToken string) (*ListResponse, error) {
	if !status.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown status %q", status))
	}
	return s.repo.ListByStatus(ctx, status, clampLimit(limit), nextToken)
}

// IsStorageFailure reports whether err came from a failed ledger write
func IsStorageFailure(err error) bool {
	return stderrors.Is(err, errors.ErrStorage)
}

func clampLimit(limit int32) int32 {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func maskPayment(draft *Draft) *PaymentDetails {
	switch {
	case draft.Bank != nil:
		return &PaymentDetails{
			Method:        draft.Method,
			AccountNumber: MaskTail(draft.Bank.AccountNumber),
			RoutingNumber: draft.Bank.RoutingNumber,
			AccountName:   draft.Bank.AccountName,
		}
	case draft.Card != nil:
		return &PaymentDetails{
			Method:     draft.Method,
			CardNumber: MaskTail(draft.Card.Number),
			CardExpiry: draft.Card.Expiry,
			CardName:   draft.Card.Name,
		}
	}
	return nil
}

// MaskTail keeps the last four characters of a number and masks the rest
func MaskTail(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) <= 4 {
		return s
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
