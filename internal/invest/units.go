package invest

import (
	"github.com/shopspring/decimal"
)

// Asset units are fractional; money never is. Units carry 8 decimal places,
// every paise amount derived from them is floored so the ledger only ever
// sees whole paise.

const unitScale = 8

// unitsFor converts an amount spent into units at the given price,
// truncated to the unit scale. Truncation, not rounding: units may never
// value out to more than was paid in.
func unitsFor(amountSpent, pricePerUnit int64) decimal.Decimal {
	q, _ := decimal.NewFromInt(amountSpent).
		QuoRem(decimal.NewFromInt(pricePerUnit), unitScale)
	return q
}

// proceedsOf values a unit quantity at a price, floored to whole paise.
func proceedsOf(units decimal.Decimal, pricePerUnit int64) int64 {
	return units.Mul(decimal.NewFromInt(pricePerUnit)).Floor().IntPart()
}

// averageCost recomputes the per-unit cost basis after a buy.
func averageCost(investedAmount int64, unitsOwned decimal.Decimal) int64 {
	if unitsOwned.IsZero() {
		return 0
	}
	return decimal.NewFromInt(investedAmount).
		DivRound(unitsOwned, 0).IntPart()
}

// splitInvested removes the sold share of the cost basis proportionally:
// selling 4 of 10 units releases 40% of the invested amount. A full sell
// releases everything, so the holding closes at exactly zero.
func splitInvested(invested int64, unitsSold, unitsOwned decimal.Decimal) (soldCost, remaining int64) {
	if unitsOwned.IsZero() || unitsSold.GreaterThanOrEqual(unitsOwned) {
		return invested, 0
	}
	sold := decimal.NewFromInt(invested).
		Mul(unitsSold).
		DivRound(unitsOwned, 0).IntPart()
	return sold, invested - sold
}
