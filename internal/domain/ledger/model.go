package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the type of a funds movement
type Kind string

const (
	Transfer   Kind = "transfer"
	Withdrawal Kind = "withdrawal"
	Deposit    Kind = "deposit"
)

// Valid reports whether the kind is known
func (k Kind) Valid() bool {
	return k == Transfer || k == Withdrawal || k == Deposit
}

// IsDebit reports whether the movement takes funds out of the account
func (k Kind) IsDebit() bool {
	return k == Transfer || k == Withdrawal
}

// Status is the review state of a ledger entry
type Status string

const (
	Pending   Status = "pending"
	Completed Status = "completed"
	Failed    Status = "failed"
	Rejected  Status = "rejected"
)

// Valid reports whether the status is known
func (s Status) Valid() bool {
	switch s {
	case Pending, Completed, Failed, Rejected:
		return true
	}
	return false
}

// BankDetails identifies an external bank account
type BankDetails struct {
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
	AccountName   string `json:"accountName"`
}

// CardDetails identifies a payment card. Only the masked number is ever stored.
type CardDetails struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
	Name   string `json:"name"`
}

// PaymentDetails is the stored, masked form of bank or card details
type PaymentDetails struct {
	Method        string `json:"method"`
	AccountNumber string `json:"accountNumber,omitempty"`
	RoutingNumber string `json:"routingNumber,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	CardNumber    string `json:"cardNumber,omitempty"`
	CardExpiry    string `json:"cardExpiry,omitempty"`
	CardName      string `json:"cardName,omitempty"`
}

// Entry is an immutable record of a submitted operation. Only its status
// and review fields change after creation.
type Entry struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Kind              Kind            `json:"kind"`
	Amount            decimal.Decimal `json:"amount"`
	Fee               decimal.Decimal `json:"fee"`
	Total             decimal.Decimal `json:"total"`
	Status            Status          `json:"status"`
	Recipient         string          `json:"recipient,omitempty"`
	RecipientType     string          `json:"recipientType,omitempty"`
	TransferType      string          `json:"transferType,omitempty"`
	Method            string          `json:"method,omitempty"`
	AccountType       string          `json:"accountType"`
	Description       string          `json:"description,omitempty"`
	Date              string          `json:"date"` //YYYY-MM-DD
	SecondaryVerified bool            `json:"secondaryVerified"`
	TertiaryVerified  bool            `json:"tertiaryVerified"`
	RequiresApproval  bool            `json:"requiresApproval"`
	PaymentDetails    *PaymentDetails `json:"paymentDetails,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	ReviewedAt        *time.Time      `json:"reviewedAt,omitempty"`
	ReviewedBy        string          `json:"reviewedBy,omitempty"`
}

// Net is the amount credited by a deposit once its fee is taken
func (e *Entry) Net() decimal.Decimal {
	return e.Amount.Sub(e.Fee)
}

// Draft is the validated content of an operation ready to be recorded
type Draft struct {
	UserID            string
	Kind              Kind
	Amount            decimal.Decimal
	Fee               decimal.Decimal
	Total             decimal.Decimal
	Recipient         string
	RecipientType     string
	TransferType      string
	Method            string
	AccountType       string
	Description       string
	SecondaryVerified bool
	TertiaryVerified  bool
	Bank              *BankDetails
	Card              *CardDetails
}

// ListFilter narrows a statement listing
type ListFilter struct {
	From      string `json:"from,omitempty"` //YYYY-MM-DD
	To        string `json:"to,omitempty"`   //YYYY-MM-DD
	Kind      Kind   `json:"kind,omitempty"`
	Status    Status `json:"status,omitempty"`
	Limit     int32  `json:"limit,omitempty"`
	NextToken string `json:"nextToken,omitempty"`
}

// ListResponse is one page of entries
type ListResponse struct {
	Entries   []Entry `json:"entries"`
	NextToken string  `json:"nextToken,omitempty"`
}

const (
	// DefaultPageSize is used when a listing does not set a limit
	DefaultPageSize int32 = 50
	// MaxPageSize caps a listing limit
	MaxPageSize int32 = 200
)
