package invest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitsFor(t *testing.T) {
	// 1000.00 spent at 100.00 per unit = 10 units exactly.
	units := unitsFor(100000, 10000)
	assert.True(t, units.Equal(decimal.NewFromInt(10)), "got %s", units)

	// Fractional result keeps 8 decimal places.
	units = unitsFor(10000, 30000) // 100 rupees at 300/unit
	assert.Equal(t, "0.33333333", units.String())
}

func TestUnitsForTruncatesDust(t *testing.T) {
	// At 52,00,000.00 rupees per unit, 200.00 sits between unit steps:
	// 20000/520000000000 = 0.0000000384..., which must truncate down.
	units := unitsFor(20000, 520000000000)
	assert.Equal(t, "0.00000003", units.String())
	assert.LessOrEqual(t, proceedsOf(units, 520000000000), int64(20000),
		"selling straight back can never return more than was paid")

	// 20.00 buys less than one unit step: exactly zero units, which Buy
	// rejects before any money moves.
	assert.True(t, unitsFor(2000, 520000000000).IsZero())
}

func TestBuySellRoundTripNeverProfits(t *testing.T) {
	prices := []int64{1, 3, 7, 30000, 999999, 520000000000}
	amounts := []int64{1, 2000, 9999, 20000, 100000}
	for _, p := range prices {
		for _, a := range amounts {
			units := unitsFor(a, p)
			assert.LessOrEqual(t, proceedsOf(units, p), a,
				"spend %d at price %d", a, p)
		}
	}
}

func TestProceedsFloored(t *testing.T) {
	units := decimal.RequireFromString("0.33333333")
	// 0.33333333 * 30000 = 9999.9999 -> 9999 paise.
	assert.Equal(t, int64(9999), proceedsOf(units, 30000))
}

func TestPartialSellProportions(t *testing.T) {
	// Hold 10 units bought for 1000.00 total; sell 4 at 120.00/unit.
	owned := decimal.NewFromInt(10)
	sold := decimal.NewFromInt(4)

	proceeds := proceedsOf(sold, 12000)
	assert.Equal(t, int64(48000), proceeds, "4 x 120.00 should credit 480.00")

	releasedCost, remaining := splitInvested(100000, sold, owned)
	assert.Equal(t, int64(40000), releasedCost)
	assert.Equal(t, int64(60000), remaining, "60% of cost basis stays with the 6 remaining units")

	left := owned.Sub(sold)
	assert.True(t, left.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, int64(10000), averageCost(remaining, left), "cost basis per unit is unchanged by a sell")
}

func TestFullSellClosesHolding(t *testing.T) {
	owned := decimal.RequireFromString("3.5")
	released, remaining := splitInvested(70001, owned, owned)
	assert.Equal(t, int64(70001), released)
	assert.Zero(t, remaining)
}

func TestAverageCostAfterRepeatBuy(t *testing.T) {
	// First buy: 10 units for 1000.00. Second buy: 5 units for 750.00.
	total := decimal.NewFromInt(15)
	avg := averageCost(100000+75000, total)
	// 1750.00 / 15 = 116.666..., rounds to 11667 paise.
	assert.Equal(t, int64(11667), avg)
}

func TestAverageCostZeroUnits(t *testing.T) {
	require.Zero(t, averageCost(5000, decimal.Zero))
}

func TestSplitInvestedOversell(t *testing.T) {
	// Defensive path only; Sell rejects this before reaching the math.
	released, remaining := splitInvested(100, decimal.NewFromInt(5), decimal.NewFromInt(3))
	assert.Equal(t, int64(100), released)
	assert.Zero(t, remaining)
}
