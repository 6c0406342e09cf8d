package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditEntry(t *testing.T) {
	newBalance, signed, err := creditEntry(100000, 50000)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), newBalance)
	assert.Equal(t, int64(50000), signed)
}

func TestCreditEntryRejectsNonPositive(t *testing.T) {
	_, _, err := creditEntry(100, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, _, err = creditEntry(100, -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDebitEntry(t *testing.T) {
	newBalance, signed, err := debitEntry(100000, 30000)
	require.NoError(t, err)
	assert.Equal(t, int64(70000), newBalance)
	assert.Equal(t, int64(-30000), signed)
}

func TestDebitEntryNeverGoesNegative(t *testing.T) {
	// Exactly the balance is allowed.
	newBalance, signed, err := debitEntry(500, 500)
	require.NoError(t, err)
	assert.Zero(t, newBalance)
	assert.Equal(t, int64(-500), signed)

	// One paise more is not.
	_, _, err = debitEntry(500, 501)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestDebitEntryRejectsNonPositive(t *testing.T) {
	_, _, err := debitEntry(100, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, _, err = debitEntry(100, -1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// The invariant: replaying a sequence of entries, the running balance always
// equals the sum of the signed amounts recorded so far.
func TestEntrySequenceBalancesSum(t *testing.T) {
	type op struct {
		credit bool
		amount int64
	}
	ops := []op{
		{true, 100000},
		{false, 25000},
		{true, 4999},
		{false, 75000},
		{true, 1},
	}

	var balance, sum int64
	for _, o := range ops {
		var signed int64
		var err error
		if o.credit {
			balance, signed, err = creditEntry(balance, o.amount)
		} else {
			balance, signed, err = debitEntry(balance, o.amount)
		}
		require.NoError(t, err)
		sum += signed
		assert.Equal(t, sum, balance)
	}
	assert.Equal(t, int64(5000), balance)
}

// The transfer shape: a debit leg and a credit leg of the same amount keep
// the combined balance constant. Wallet 1000.00 sends 300.00 to an account
// holding 500.00: the pair ends at 700.00 and 800.00.
func TestTransferLegsConserveMoney(t *testing.T) {
	senderBalance, senderSigned, err := debitEntry(100000, 30000)
	require.NoError(t, err)
	receiverBalance, receiverSigned, err := creditEntry(50000, 30000)
	require.NoError(t, err)

	assert.Equal(t, int64(70000), senderBalance)
	assert.Equal(t, int64(80000), receiverBalance)
	assert.Zero(t, senderSigned+receiverSigned)
}

func TestKindSigns(t *testing.T) {
	for _, k := range []Kind{KindIncome, KindTransferIn, KindRefund} {
		assert.True(t, creditKindOK(k), "%s should credit", k)
		assert.False(t, debitKindOK(k), "%s should not debit", k)
	}
	for _, k := range []Kind{KindExpense, KindTransferOut, KindFee} {
		assert.True(t, debitKindOK(k), "%s should debit", k)
		assert.False(t, creditKindOK(k), "%s should not credit", k)
	}
	// Investment and adjustment run both directions: buys debit, sells
	// credit; adjustments correct in either.
	for _, k := range []Kind{KindInvestment, KindAdjustment} {
		assert.True(t, creditKindOK(k))
		assert.True(t, debitKindOK(k))
	}
}
