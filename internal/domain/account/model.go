package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType selects which balance of an account an operation uses
type AccountType string

const (
	// Checking is the main balance
	Checking AccountType = "checking"
	// Savings is the savings balance
	Savings AccountType = "savings"
)

// Valid reports whether the account type is known
func (t AccountType) Valid() bool {
	return t == Checking || t == Savings
}

// BalanceField is the stored attribute holding the balance for the type
func (t AccountType) BalanceField() string {
	if t == Savings {
		return "SavingsBalance"
	}
	return "Balance"
}

// Status represents whether an account may move funds
type Status string

const (
	// Active accounts can submit operations
	Active Status = "active"
	// Suspended accounts are read-only
	Suspended Status = "suspended"
)

// Valid reports whether the status is known
func (s Status) Valid() bool {
	return s == Active || s == Suspended
}

// Account represents a customer account with its two balances
type Account struct {
	UserID         string          `json:"userId"`
	Email          string          `json:"email"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Currency       string          `json:"currency"`
	Status         Status          `json:"status"`
	Balance        decimal.Decimal `json:"balance"`
	SavingsBalance decimal.Decimal `json:"savingsBalance"`

	// Code hashes never leave the service
	SecondaryCodeHash string `json:"-"`
	TertiaryCodeHash  string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Available returns the balance for the given account type
func (a *Account) Available(t AccountType) decimal.Decimal {
	if t == Savings {
		return a.SavingsBalance
	}
	return a.Balance
}

// Snapshot is a point-in-time view of an account's balances
type Snapshot struct {
	UserID   string          `json:"userId"`
	Status   Status          `json:"status"`
	Checking decimal.Decimal `json:"checking"`
	Savings  decimal.Decimal `json:"savings"`
	TakenAt  time.Time       `json:"takenAt"`
}

// Available returns the snapshot balance for the given account type
func (s Snapshot) Available(t AccountType) decimal.Decimal {
	if t == Savings {
		return s.Savings
	}
	return s.Checking
}

// OpenAccountRequest represents the admin request to open an account
type OpenAccountRequest struct {
	Email          string          `json:"email" validate:"required,email"`
	FirstName      string          `json:"firstName" validate:"required,max=100"`
	LastName       string          `json:"lastName" validate:"required,max=100"`
	Currency       string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	Balance        decimal.Decimal `json:"balance" validate:"nonnegative_decimal"`
	SavingsBalance decimal.Decimal `json:"savingsBalance" validate:"nonnegative_decimal"`
}

// OpenAccountResponse carries the new account and its plaintext codes.
// The codes are only ever returned here and from RegenerateCodes.
type OpenAccountResponse struct {
	Account       *Account `json:"account"`
	SecondaryCode string   `json:"secondaryCode"`
	TertiaryCode  string   `json:"tertiaryCode"`
}

// CodesResponse carries freshly regenerated plaintext codes
type CodesResponse struct {
	UserID        string `json:"userId"`
	SecondaryCode string `json:"secondaryCode"`
	TertiaryCode  string `json:"tertiaryCode"`
}

// SetStatusRequest represents the admin request to change an account status
type SetStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=active suspended"`
}

// DefaultCurrency is used when an account is opened without one
const DefaultCurrency = "USD"
