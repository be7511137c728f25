package request

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the type of a product request
type Kind string

const (
	Loan Kind = "loan"
	Card Kind = "card"
)

// Valid reports whether the kind is known
func (k Kind) Valid() bool {
	return k == Loan || k == Card
}

// Status is the review state of a request
type Status string

const (
	Pending  Status = "pending"
	Approved Status = "approved"
	Rejected Status = "rejected"
)

// Valid reports whether the status is known
func (s Status) Valid() bool {
	switch s {
	case Pending, Approved, Rejected:
		return true
	}
	return false
}

// LoanProduct is a loan offered to account holders
type LoanProduct struct {
	Type          string          `json:"type"`
	Name          string          `json:"name"`
	MinAmount     decimal.Decimal `json:"minAmount"`
	MaxAmount     decimal.Decimal `json:"maxAmount"`
	MinRate       decimal.Decimal `json:"minRate"`
	MaxRate       decimal.Decimal `json:"maxRate"`
	MaxTermMonths int             `json:"maxTermMonths"`
}

// CardProduct is a credit card offered to account holders
type CardProduct struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	AnnualFee   decimal.Decimal `json:"annualFee"`
	Cashback    string          `json:"cashback"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
}

// LoanTerms are the applicant's answers on a loan application
type LoanTerms struct {
	Amount         decimal.Decimal `json:"amount"`
	Purpose        string          `json:"purpose"`
	TermMonths     int             `json:"termMonths"`
	Income         decimal.Decimal `json:"income"`
	Employment     string          `json:"employment"`
	Employer       string          `json:"employer"`
	WorkExperience string          `json:"workExperience"`
}

// CardDelivery is where and why a card was requested
type CardDelivery struct {
	PhoneNumber     string `json:"phoneNumber"`
	Reason          string `json:"reason"`
	DeliveryAddress string `json:"deliveryAddress"`
	City            string `json:"city"`
	State           string `json:"state"`
	ZipCode         string `json:"zipCode"`
}

// Request is a loan application or card request awaiting an admin decision.
// Only its status and review fields change after creation.
type Request struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	UserEmail   string        `json:"userEmail"`
	UserName    string        `json:"userName"`
	Kind        Kind          `json:"kind"`
	Product     string        `json:"product"`
	ProductName string        `json:"productName"`
	Status      Status        `json:"status"`
	Loan        *LoanTerms    `json:"loan,omitempty"`
	Card        *CardDelivery `json:"card,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	ReviewedAt  *time.Time    `json:"reviewedAt,omitempty"`
	ReviewedBy  string        `json:"reviewedBy,omitempty"`
}

// LoanApplication is the body of POST /loans
type LoanApplication struct {
	LoanType       string      `json:"loanType" validate:"required,max=20"`
	Amount         json.Number `json:"amount" validate:"required,positive_amount"`
	Purpose        string      `json:"purpose" validate:"required,max=500"`
	TermMonths     int         `json:"term" validate:"required,gt=0"`
	Income         json.Number `json:"income" validate:"required,positive_amount"`
	Employment     string      `json:"employment" validate:"required,max=100"`
	Employer       string      `json:"employer" validate:"required,max=200"`
	WorkExperience string      `json:"workExperience" validate:"required,max=100"`
}

// CardApplication is the body of POST /cards
type CardApplication struct {
	CardType        string `json:"cardType" validate:"required,max=20"`
	PhoneNumber     string `json:"phoneNumber" validate:"required,phone"`
	Reason          string `json:"reason" validate:"required,max=500"`
	DeliveryAddress string `json:"deliveryAddress" validate:"required,max=200"`
	City            string `json:"city" validate:"required,max=100"`
	State           string `json:"state" validate:"required,max=100"`
	ZipCode         string `json:"zipCode" validate:"required,max=20"`
}

// ListResponse is one page of requests
type ListResponse struct {
	Requests  []Request `json:"requests"`
	NextToken string    `json:"nextToken,omitempty"`
}

const (
	// DefaultPageSize is used when a listing does not set a limit
	DefaultPageSize int32 = 50
	// MaxPageSize caps a listing limit
	MaxPageSize int32 = 200
)
