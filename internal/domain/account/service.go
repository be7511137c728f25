package account

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/verification"
)

// CodeIssuer generates confirmation codes and their hashes
type CodeIssuer interface {
	Issue(ctx context.Context) (verification.IssuedCode, error)
}

// Service provides account-related business logic
type Service struct {
	repo      Repository
	directory Directory
	issuer    CodeIssuer
	now       func() time.Time
}

// NewService creates a new account service
func NewService(repo Repository, directory Directory, issuer CodeIssuer) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		issuer:    issuer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Open creates the sign-in identity, issues both codes and stores the account
func (s *Service) Open(ctx context.Context, req *OpenAccountRequest) (*OpenAccountResponse, error) {
	if req.Email == "" || req.FirstName == "" || req.LastName == "" {
		return nil, errors.NewValidationError("email, firstName and lastName are required")
	}
	if req.Balance.IsNegative() || req.SavingsBalance.IsNegative() {
		return nil, errors.NewValidationError("initial balances must not be negative")
	}

	secondary, tertiary, err := s.issueCodes(ctx)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(req.Email)
	userID, err := s.directory.CreateUser(ctx, email, req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}

	now := s.now()
	account := &Account{
		UserID:            userID,
		Email:             email,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Currency:          currency,
		Status:            Active,
		Balance:           req.Balance.Round(2),
		SavingsBalance:    req.SavingsBalance.Round(2),
		SecondaryCodeHash: secondary.Hash,
		TertiaryCodeHash:  tertiary.Hash,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// An identity without an account would block every retry for the email.
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if delErr := s.directory.DeleteUser(ctx, email); delErr != nil {
			return nil, stderrors.Join(err, fmt.Errorf("remove identity %s: %w", email, delErr))
		}
		return nil, err
	}

	return &OpenAccountResponse{
		Account:       account,
		SecondaryCode: secondary.Plain,
		TertiaryCode:  tertiary.Plain,
	}, nil
}

// Get returns an account by user ID
func (s *Service) Get(ctx context.Context, userID string) (*Account, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user ID is required")
	}
	return s.repo.GetAccount(ctx, userID)
}

// Snapshot reads the current balances of an account
func (s *Service) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		UserID:   account.UserID,
		Status:   account.Status,
		Checking: account.Balance,
		Savings:  account.SavingsBalance,
		TakenAt:  s.now(),
	}, nil
}

// RegenerateCodes replaces both codes of an account and returns the new plaintext codes
func (s *Service) RegenerateCodes(ctx context.Context, userID string) (*CodesResponse, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	secondary, tertiary, err := s.issueCodes(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCodeHashes(ctx, userID, secondary.Hash, tertiary.Hash); err != nil {
		return nil, err
	}

	return &CodesResponse{
		UserID:        userID,
		SecondaryCode: secondary.Plain,
		TertiaryCode:  tertiary.Plain,
	}, nil
}

// SetStatus activates or suspends an account
func (s *Service) SetStatus(ctx context.Context, userID string, status Status) (*Account, error) {
	if !status.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid account status %q", status))
	}
	if err := s.repo.UpdateStatus(ctx, userID, status); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *Service) issueCodes(ctx context.Context) (verification.IssuedCode, verification.IssuedCode, error) {
	secondary, err := s.issuer.Issue(ctx)
	if err != nil {
		return verification.IssuedCode{}, verification.IssuedCode{}, errors.NewInternalError("failed to issue codes", err)
	}
	tertiary, err := s.issuer.Issue(ctx)
	if err != nil {
		return verification.IssuedCode{}, verification.IssuedCode{}, errors.NewInternalError("failed to issue codes", err)
	}
	return secondary, tertiary, nil
}
