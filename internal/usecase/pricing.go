package usecase

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Price applies the person and account discounts to base. The discounts add
// up and are capped at 100 percent; the result is rounded to cents.
func Price(base, personPct, accountPct float64) float64 {
	return priceDecimal(base, personPct, accountPct).InexactFloat64()
}

func priceDecimal(base, personPct, accountPct float64) decimal.Decimal {
	discount := decimal.NewFromFloat(personPct).Add(decimal.NewFromFloat(accountPct))
	if discount.GreaterThan(hundred) {
		discount = hundred
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	return decimal.NewFromFloat(base).
		Mul(hundred.Sub(discount)).
		Div(hundred).
		Round(2)
}

// sumAmounts adds charges without float drift.
func sumAmounts(amounts []float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(2).InexactFloat64()
}

// wouldBreachFloor reports whether charging total drops balance under floor.
func wouldBreachFloor(balance, total, floor float64) bool {
	remaining := decimal.NewFromFloat(balance).Sub(decimal.NewFromFloat(total))
	return remaining.LessThan(decimal.NewFromFloat(floor))
}
