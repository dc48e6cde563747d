package settlement

import (
	"github.com/vendalivre/vendalivre-backend/pkg/money"
)

// SplitAmount divides an order amount between the seller and the platform.
// The fee leg is round-half-up of amount * feePercent / 100 and the seller
// keeps the remainder, so sellerCents + feeCents == amountCents always.
func SplitAmount(amountCents int64, feePercent int) (sellerCents, feeCents int64) {
	if amountCents <= 0 {
		return 0, 0
	}
	if feePercent <= 0 {
		return amountCents, 0
	}
	if feePercent >= 100 {
		return 0, amountCents
	}
	feeCents = money.PercentOf(amountCents, feePercent)
	if feeCents > amountCents {
		feeCents = amountCents
	}
	return amountCents - feeCents, feeCents
}
