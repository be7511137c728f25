package request

import (
	"github.com/shopspring/decimal"
)

var loanProducts = []LoanProduct{
	{
		Type:          "personal",
		Name:          "Personal Loan",
		MinAmount:     decimal.NewFromInt(1000),
		MaxAmount:     decimal.NewFromInt(50000),
		MinRate:       decimal.RequireFromString("3.99"),
		MaxRate:       decimal.RequireFromString("15.99"),
		MaxTermMonths: 84,
	},
	{
		Type:          "business",
		Name:          "Business Loan",
		MinAmount:     decimal.NewFromInt(5000),
		MaxAmount:     decimal.NewFromInt(500000),
		MinRate:       decimal.RequireFromString("5.99"),
		MaxRate:       decimal.RequireFromString("18.99"),
		MaxTermMonths: 120,
	},
	{
		Type:          "auto",
		Name:          "Auto Loan",
		MinAmount:     decimal.NewFromInt(5000),
		MaxAmount:     decimal.NewFromInt(100000),
		MinRate:       decimal.RequireFromString("4.49"),
		MaxRate:       decimal.RequireFromString("12.99"),
		MaxTermMonths: 84,
	},
	{
		Type:          "home",
		Name:          "Home Loan",
		MinAmount:     decimal.NewFromInt(50000),
		MaxAmount:     decimal.NewFromInt(1000000),
		MinRate:       decimal.RequireFromString("3.25"),
		MaxRate:       decimal.RequireFromString("8.99"),
		MaxTermMonths: 360,
	},
}

var cardProducts = []CardProduct{
	{Type: "platinum", Name: "Platinum Rewards Card", AnnualFee: decimal.Zero, Cashback: "2%", CreditLimit: decimal.NewFromInt(10000)},
	{Type: "gold", Name: "Gold Cashback Card", AnnualFee: decimal.NewFromInt(95), Cashback: "3%", CreditLimit: decimal.NewFromInt(15000)},
	{Type: "business", Name: "Business Elite Card", AnnualFee: decimal.NewFromInt(150), Cashback: "4%", CreditLimit: decimal.NewFromInt(25000)},
	{Type: "student", Name: "Student Starter Card", AnnualFee: decimal.Zero, Cashback: "1%", CreditLimit: decimal.NewFromInt(2000)},
}

// LoanProducts returns the loan catalog
func LoanProducts() []LoanProduct {
	return append([]LoanProduct(nil), loanProducts...)
}

// CardProducts returns the card catalog
func CardProducts() []CardProduct {
	return append([]CardProduct(nil), cardProducts...)
}

func findLoanProduct(loanType string) (LoanProduct, bool) {
	for _, p := range loanProducts {
		if p.Type == loanType {
			return p, true
		}
	}
	return LoanProduct{}, false
}

func findCardProduct(cardType string) (CardProduct, bool) {
	for _, p := range cardProducts {
		if p.Type == cardType {
			return p, true
		}
	}
	return CardProduct{}, false
}
