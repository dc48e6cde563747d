package money

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Display formats an amount in cents as a decimal string with two places,
// e.g. 10000 -> "100.00". Used for the amount_display fields in responses.
func Display(cents int64) string {
	return decimal.NewFromInt(cents).Div(hundred).StringFixed(2)
}

// DisplayBRL prefixes the formatted amount with the real currency symbol.
func DisplayBRL(cents int64) string {
	return "R$ " + Display(cents)
}

// PercentOf returns round-half-up of cents*(percent/100). The remainder of
// a split always goes to the counterparty leg so the total is conserved.
func PercentOf(cents int64, percent int) int64 {
	return decimal.NewFromInt(cents).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(hundred).
		Round(0).
		IntPart()
}
