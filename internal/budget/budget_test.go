package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	limit := int64(50000) // 500.00

	assert.Equal(t, StatusOK, statusOf(0, limit))
	assert.Equal(t, StatusOK, statusOf(39999, limit), "just under 80%")
	assert.Equal(t, StatusWarning, statusOf(40000, limit), "exactly 80%")
	assert.Equal(t, StatusWarning, statusOf(50000, limit), "at the limit is warning, not exceeded")
	assert.Equal(t, StatusExceeded, statusOf(50001, limit))
}

func TestUsedPercent(t *testing.T) {
	assert.InDelta(t, 80.0, usedPercent(40000, 50000), 0.001)
	assert.InDelta(t, 120.0, usedPercent(60000, 50000), 0.001)
	assert.Zero(t, usedPercent(100, 0))
}
