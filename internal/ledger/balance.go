package ledger

// The pure balance core. Every storage write goes through one of these two
// functions, so the invariant "stored balance == sum of signed transaction
// amounts" reduces to: each entry's signed amount equals the balance delta
// it was computed from.

// creditEntry validates a credit and returns the new balance and the signed
// amount to record.
func creditEntry(balance, amount int64) (newBalance, signed int64, err error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	return balance + amount, amount, nil
}

// debitEntry validates a debit against the current balance. A debit may
// never take an account below zero.
func debitEntry(balance, amount int64) (newBalance, signed int64, err error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if amount > balance {
		return 0, 0, ErrInsufficientFunds
	}
	return balance - amount, -amount, nil
}

// creditKindOK reports whether a kind makes sense on a credit entry.
func creditKindOK(k Kind) bool {
	switch k {
	case KindIncome, KindTransferIn, KindRefund, KindAdjustment, KindInvestment:
		return true
	}
	return false
}

// debitKindOK reports whether a kind makes sense on a debit entry.
func debitKindOK(k Kind) bool {
	switch k {
	case KindExpense, KindTransferOut, KindInvestment, KindFee, KindAdjustment:
		return true
	}
	return false
}
