package movement

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/hirosato/guarded-funds/internal/domain/account"
	"github.com/hirosato/guarded-funds/internal/domain/ledger"
)

// Step is the wizard cursor position
type Step int

const (
	StepDetails       Step = 1
	StepReview        Step = 2
	StepSecondaryCode Step = 3
	StepTertiaryCode  Step = 4
)

// LastStep returns the final step for the kind. Deposits credit the account,
// so they skip both code steps.
func LastStep(kind ledger.Kind) Step {
	if kind == ledger.Deposit {
		return StepReview
	}
	return StepTertiaryCode
}

// Recipient types for transfers
const (
	RecipientEmail   = "email"
	RecipientPhone   = "phone"
	RecipientAccount = "account"
)

// Transfer speeds
const (
	TransferStandard = "standard"
	TransferInstant  = "instant"
)

// Payment methods for withdrawals and deposits
const (
	MethodBank   = "bank"
	MethodCard   = "card"
	MethodMobile = "mobile"
)

// AmountInput is the amount as the user typed it. It accepts JSON strings
// and numbers so the exact decimal text is kept.
type AmountInput string

// UnmarshalJSON implements json.Unmarshaler
func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = AmountInput(n.String())
	return nil
}

// PendingOperation is the in-progress operation carried by the client
// between wizard calls. It is never stored before submission.
type PendingOperation struct {
	Kind          ledger.Kind         `json:"kind"`
	Amount        AmountInput         `json:"amount"`
	Fee           decimal.Decimal     `json:"fee"`
	Total         decimal.Decimal     `json:"total"`
	Recipient     string              `json:"recipient,omitempty"`
	RecipientType string              `json:"recipientType,omitempty"`
	TransferType  string              `json:"transferType,omitempty"`
	Method        string              `json:"method,omitempty"`
	AccountType   account.AccountType `json:"accountType"`
	Description   string              `json:"description,omitempty"`
	Bank          *ledger.BankDetails `json:"bankDetails,omitempty"`
	Card          *ledger.CardDetails `json:"cardDetails,omitempty"`
	SecondaryCode string              `json:"secondaryCode,omitempty"`
	TertiaryCode  string              `json:"tertiaryCode,omitempty"`
}

// Quote is the fee breakdown of an operation
type Quote struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Total  decimal.Decimal `json:"total"`
	// Net is the amount credited by a deposit
	Net decimal.Decimal `json:"net"`
}

// AdvanceRequest asks the server to advance the wizard from Step
type AdvanceRequest struct {
	Step      Step             `json:"step"`
	Operation PendingOperation `json:"operation"`
}

// RetreatRequest asks the server to move the wizard back from Step
type RetreatRequest struct {
	Step Step `json:"step"`
}

// AdvanceResult is the wizard state after a successful advance
type AdvanceResult struct {
	Step      Step             `json:"step"`
	LastStep  Step             `json:"lastStep"`
	Done      bool             `json:"done"`
	Quote     *Quote           `json:"quote,omitempty"`
	Operation PendingOperation `json:"operation"`
	Entry     *ledger.Entry    `json:"entry,omitempty"`
}
