package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRupeesToPaise(t *testing.T) {
	got, err := RupeesToPaise(12.34)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got)

	got, err = RupeesToPaise(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	// rounding, not truncation
	got, err = RupeesToPaise(0.105)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got)

	_, err = RupeesToPaise(-1)
	assert.ErrorIs(t, err, ErrInvalidMoney)

	_, err = RupeesToPaise(1e17)
	assert.ErrorIs(t, err, ErrInvalidMoney)
}

func TestPaiseToRupeesString(t *testing.T) {
	assert.Equal(t, "123.45", PaiseToRupeesString(12345))
	assert.Equal(t, "0.05", PaiseToRupeesString(5))
	assert.Equal(t, "-7.00", PaiseToRupeesString(-700))
}
