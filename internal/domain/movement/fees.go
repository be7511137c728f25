package movement

import (
	"github.com/shopspring/decimal"

	"github.com/hirosato/guarded-funds/internal/domain/ledger"
)

var hundred = decimal.NewFromInt(100)

// FeePolicy holds the fee and minimum amount rules per kind
type FeePolicy struct {
	InstantTransferFee   decimal.Decimal
	WithdrawalFeePercent decimal.Decimal
	DepositFeePercent    decimal.Decimal
	MinTransferAmount    decimal.Decimal
	MinWithdrawalAmount  decimal.Decimal
	MinDepositAmount     decimal.Decimal
}

// DefaultFeePolicy returns the standard fees
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		InstantTransferFee:   decimal.RequireFromString("2.99"),
		WithdrawalFeePercent: decimal.RequireFromString("1.5"),
		DepositFeePercent:    decimal.RequireFromString("2.5"),
		MinTransferAmount:    decimal.RequireFromString("0.01"),
		MinWithdrawalAmount:  decimal.NewFromInt(20),
		MinDepositAmount:     decimal.NewFromInt(10),
	}
}

// Minimum returns the smallest amount accepted for the kind
func (p FeePolicy) Minimum(kind ledger.Kind) decimal.Decimal {
	switch kind {
	case ledger.Withdrawal:
		return p.MinWithdrawalAmount
	case ledger.Deposit:
		return p.MinDepositAmount
	default:
		return p.MinTransferAmount
	}
}

// Fee returns the fee for an amount, rounded to cents
func (p FeePolicy) Fee(kind ledger.Kind, transferType string, amount decimal.Decimal) decimal.Decimal {
	switch kind {
	case ledger.Transfer:
		if transferType == TransferInstant {
			return p.InstantTransferFee.Round(2)
		}
		return decimal.Zero
	case ledger.Withdrawal:
		return amount.Mul(p.WithdrawalFeePercent).Div(hundred).Round(2)
	case ledger.Deposit:
		return amount.Mul(p.DepositFeePercent).Div(hundred).Round(2)
	}
	return decimal.Zero
}

// Quote computes fee, total and net for an amount. Debits are charged
// amount plus fee; deposits are credited amount minus fee.
func (p FeePolicy) Quote(kind ledger.Kind, transferType string, amount decimal.Decimal) Quote {
	fee := p.Fee(kind, transferType, amount)
	q := Quote{Amount: amount, Fee: fee}
	if kind.IsDebit() {
		q.Total = amount.Add(fee)
		q.Net = amount
	} else {
		q.Total = amount
		q.Net = amount.Sub(fee)
	}
	return q
}
