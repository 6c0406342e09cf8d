package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulatePriceMovementBounds(t *testing.T) {
	const price = int64(1000000) // 10000.00
	const volatility = 5.0

	for i := 0; i < 1000; i++ {
		p := simulatePriceMovement(price, volatility)
		assert.GreaterOrEqual(t, p, int64(1))
		// Magnitude of one step is bounded by the volatility percentage.
		assert.GreaterOrEqual(t, p, int64(float64(price)*(1-volatility/100))-1)
		assert.LessOrEqual(t, p, int64(float64(price)*(1+volatility/100))+1)
	}
}

func TestSimulatePriceMovementFloorsAtOnePaise(t *testing.T) {
	for i := 0; i < 200; i++ {
		assert.GreaterOrEqual(t, simulatePriceMovement(1, 90), int64(1))
	}
}

func TestSimulatePriceMovementUpwardBias(t *testing.T) {
	const price = int64(100000)
	up, down := 0, 0
	for i := 0; i < 5000; i++ {
		p := simulatePriceMovement(price, 10)
		switch {
		case p > price:
			up++
		case p < price:
			down++
		}
	}
	// 60/40 bias: over 5000 draws upward moves should clearly dominate.
	assert.Greater(t, up, down)
}
