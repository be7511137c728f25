package request

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hirosato/guarded-funds/internal/common/utils"
	"github.com/hirosato/guarded-funds/internal/domain/account"
	"github.com/hirosato/guarded-funds/internal/domain/errors"
)

const msgRequiredFields = "Please fill in all required fields"

// AccountReader loads the applicant's account
type AccountReader interface {
	Get(ctx context.Context, userID string) (*account.Account, error)
}

// Service takes loan applications and card requests from account holders
// and lets admins approve or reject them. Nothing here touches balances.
type Service struct {
	repo     Repository
	accounts AccountReader
	now      func() time.Time
}

// NewService creates a new request service
func NewService(repo Repository, accounts AccountReader) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ApplyLoan records a pending loan application
func (s *Service) ApplyLoan(ctx context.Context, userID string, app *LoanApplication) (*Request, error) {
	if app == nil || blank(app.LoanType, app.Amount.String(), app.Purpose, app.Income.String(),
		app.Employment, app.Employer, app.WorkExperience) || app.TermMonths == 0 {
		return nil, errors.NewValidationError(msgRequiredFields)
	}

	product, ok := findLoanProduct(app.LoanType)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown loan type %q", app.LoanType))
	}

	amount, err := utils.ParseAmount(app.Amount.String())
	if err != nil || amount.LessThan(product.MinAmount) || amount.GreaterThan(product.MaxAmount) {
		return nil, errors.NewValidationError(fmt.Sprintf("Amount must be between $%s and $%s",
			product.MinAmount.String(), product.MaxAmount.String()))
	}
	if app.TermMonths < 1 || app.TermMonths > product.MaxTermMonths {
		return nil, errors.NewValidationError(fmt.Sprintf("Term must be between 1 and %d months", product.MaxTermMonths))
	}
	income, err := utils.ParseAmount(app.Income.String())
	if err != nil || !income.IsPositive() {
		return nil, errors.NewValidationError("Please enter a valid annual income")
	}

	req, err := s.newRequest(ctx, userID, Loan, product.Type, product.Name)
	if err != nil {
		return nil, err
	}
	req.Loan = &LoanTerms{
		Amount:         amount,
		Purpose:        strings.TrimSpace(app.Purpose),
		TermMonths:     app.TermMonths,
		Income:         income,
		Employment:     strings.TrimSpace(app.Employment),
		Employer:       strings.TrimSpace(app.Employer),
		WorkExperience: strings.TrimSpace(app.WorkExperience),
	}
	return s.create(ctx, req)
}

// RequestCard records a pending card request
func (s *Service) RequestCard(ctx context.Context, userID string, app *CardApplication) (*Request, error) {
	if app == nil || blank(app.CardType, app.PhoneNumber, app.Reason, app.DeliveryAddress,
		app.City, app.State, app.ZipCode) {
		return nil, errors.NewValidationError(msgRequiredFields)
	}

	product, ok := findCardProduct(app.CardType)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown card type %q", app.CardType))
	}

	req, err := s.newRequest(ctx, userID, Card, product.Type, product.Name)
	if err != nil {
		return nil, err
	}
	req.Card = &CardDelivery{
		PhoneNumber:     strings.TrimSpace(app.PhoneNumber),
		Reason:          strings.TrimSpace(app.Reason),
		DeliveryAddress: strings.TrimSpace(app.DeliveryAddress),
		City:            strings.TrimSpace(app.City),
		State:           strings.TrimSpace(app.State),
		ZipCode:         strings.TrimSpace(app.ZipCode),
	}
	return s.create(ctx, req)
}

// ListByUser returns a page of a user's requests of one kind, newest first
func (s *Service) ListByUser(ctx context.Context, userID string, kind Kind, limit int32, nextToken string) (*ListResponse, error) {
	if !kind.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid request kind %q", kind))
	}
	return s.repo.ListByUser(ctx, userID, kind, pageSize(limit), nextToken)
}

// ListByStatus returns the review queue of one kind, oldest first
func (s *Service) ListByStatus(ctx context.Context, kind Kind, status Status, limit int32, nextToken string) (*ListResponse, error) {
	if !kind.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid request kind %q", kind))
	}
	if status == "" {
		status = Pending
	}
	if !status.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid request status %q", status))
	}
	return s.repo.ListByStatus(ctx, kind, status, pageSize(limit), nextToken)
}

// Approve approves a pending request
func (s *Service) Approve(ctx context.Context, kind Kind, requestID, reviewer string) (*Request, error) {
	return s.close(ctx, kind, requestID, reviewer, Approved)
}

// Reject rejects a pending request
func (s *Service) Reject(ctx context.Context, kind Kind, requestID, reviewer string) (*Request, error) {
	return s.close(ctx, kind, requestID, reviewer, Rejected)
}

func (s *Service) close(ctx context.Context, kind Kind, requestID, reviewer string, status Status) (*Request, error) {
	if !kind.Valid() || requestID == "" {
		return nil, errors.NewValidationError("request kind and ID are required")
	}
	if reviewer == "" {
		return nil, errors.NewValidationError("reviewer is required")
	}

	req, err := s.repo.GetRequestByStatus(ctx, kind, Pending, requestID)
	if stderrors.Is(err, errors.ErrNotFound) {
		return nil, s.notPending(ctx, kind, requestID, err)
	}
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := s.repo.CloseRequest(ctx, req, status, reviewer, at); err != nil {
		return nil, err
	}

	out := *req
	out.Status = status
	out.ReviewedBy = reviewer
	out.ReviewedAt = &at
	out.UpdatedAt = at
	return &out, nil
}

// notPending tells a request that was already reviewed apart from one that
// does not exist.
func (s *Service) notPending(ctx context.Context, kind Kind, requestID string, notFound error) error {
	for _, status := range []Status{Approved, Rejected} {
		req, err := s.repo.GetRequestByStatus(ctx, kind, status, requestID)
		if err == nil {
			return errors.NewConflictError(fmt.Sprintf("%s request %s is already %s", kind, requestID, req.Status))
		}
		if !stderrors.Is(err, errors.ErrNotFound) {
			return err
		}
	}
	return notFound
}

func (s *Service) newRequest(ctx context.Context, userID string, kind Kind, product, productName string) (*Request, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user ID is required")
	}

	acc, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acc.Status == account.Suspended {
		return nil, errors.NewAuthorizationError("Account is suspended. Please contact support.")
	}

	now := s.now()
	return &Request{
		ID:          ulid.Make().String(),
		UserID:      userID,
		UserEmail:   acc.Email,
		UserName:    strings.TrimSpace(acc.FirstName + " " + acc.LastName),
		Kind:        kind,
		Product:     product,
		ProductName: productName,
		Status:      Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Service) create(ctx context.Context, req *Request) (*Request, error) {
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, errors.NewStorageError("Failed to submit the application. Please try again.", err)
	}
	return req, nil
}

func pageSize(limit int32) int32 {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
