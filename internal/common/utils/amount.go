package utils

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hirosato/guarded-funds/internal/domain/errors"
)

// Amount bounds. The exponent is checked before Round or Cmp, which rescale
// the coefficient to the exponent.
const (
	maxAmountLength   = 32
	minAmountExponent = -maxAmountLength
	maxAmountExponent = 12
)

// MaxAmount is the exclusive upper bound of any money amount
var MaxAmount = decimal.New(1, maxAmountExponent)

// ParseAmount parses a money amount with at most two decimal places. Zero
// and negative values parse; callers decide their own lower bound.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxAmountLength {
		return decimal.Zero, errors.NewValidationError("invalid amount")
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.NewValidationError("invalid amount")
	}
	if exp := amount.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return decimal.Zero, errors.NewValidationError("amount out of range")
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return decimal.Zero, errors.NewValidationError("amount out of range")
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, errors.NewValidationError("amount has more than two decimal places")
	}
	return amount, nil
}
