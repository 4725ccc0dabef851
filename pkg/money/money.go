// Package money formats statement amounts for display. Arithmetic stays in
// shopspring/decimal; go-money is only the formatting edge.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CurrencyINR is the only currency Indian card statements carry.
const CurrencyINR = "INR"

// MinorUnits converts a decimal rupee amount to paise, rounding half-up.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FormatINR renders an amount with the rupee symbol and grouping, e.g.
// "₹1,234.50".
func FormatINR(amount decimal.Decimal) string {
	return money.New(MinorUnits(amount), CurrencyINR).Display()
}

// FromMinorUnits converts paise back to a decimal rupee amount.
func FromMinorUnits(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}
