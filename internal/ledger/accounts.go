package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// CreateWallet opens the user's wallet account. Called once at signup.
func (s *Service) CreateWallet(ctx context.Context, userUID string) (Account, error) {
	var a Account
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO accounts (user_id, kind, name)
		SELECT id, $2, $3 FROM users WHERE public_id = $1::uuid
		RETURNING id, public_id::text, user_id, kind, name, balance, status, created_at`,
		userUID, AccountWallet, "Wallet",
	).Scan(&a.ID, &a.PublicID, &a.UserID, &a.Kind, &a.Name, &a.Balance, &a.Status, &a.CreatedAt)
	if err != nil {
		return Account{}, mapPgError(err)
	}
	return a, nil
}

// CreateManualAccount opens a manually tracked account. A non-zero opening
// balance is recorded as an ADJUSTMENT credit so the account's history still
// sums to its balance.
func (s *Service) CreateManualAccount(ctx context.Context, userUID, name string, openingBalance int64) (Account, error) {
	if openingBalance < 0 {
		return Account{}, ErrInvalidAmount
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Account{}, mapPgError(err)
	}
	defer tx.Rollback(ctx)

	var a Account
	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (user_id, kind, name)
		SELECT id, $2, $3 FROM users WHERE public_id = $1::uuid
		RETURNING id, public_id::text, user_id, kind, name, balance, status, created_at`,
		userUID, AccountManual, name,
	).Scan(&a.ID, &a.PublicID, &a.UserID, &a.Kind, &a.Name, &a.Balance, &a.Status, &a.CreatedAt)
	if err != nil {
		return Account{}, mapPgError(err)
	}

	if openingBalance > 0 {
		note := "Opening balance"
		if _, err := s.CreditTx(ctx, tx, a, openingBalance, KindAdjustment, nil, &note, nil, nil); err != nil {
			return Account{}, err
		}
		a.Balance = openingBalance
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, mapPgError(err)
	}
	return a, nil
}

// Accounts lists a user's accounts, wallet first.
func (s *Service) Accounts(ctx context.Context, userUID string) ([]Account, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT a.id, a.public_id::text, a.user_id, a.kind, a.name, a.balance, a.status, a.last_four, a.created_at
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE u.public_id = $1::uuid
		ORDER BY a.kind = 'WALLET' DESC, a.created_at ASC`, userUID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]Account, 0)
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.PublicID, &a.UserID, &a.Kind, &a.Name, &a.Balance, &a.Status, &a.LastFour, &a.CreatedAt); err != nil {
			return nil, mapPgError(err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// WalletOf returns the user's wallet account without locking it.
func (s *Service) WalletOf(ctx context.Context, userUID string) (Account, error) {
	var a Account
	err := s.Pool.QueryRow(ctx, `
		SELECT a.id, a.public_id::text, a.user_id, a.kind, a.name, a.balance, a.status, a.created_at
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE u.public_id = $1::uuid AND a.kind = 'WALLET'
		LIMIT 1`, userUID).Scan(&a.ID, &a.PublicID, &a.UserID, &a.Kind, &a.Name, &a.Balance, &a.Status, &a.CreatedAt)
	if err != nil {
		return Account{}, mapPgError(err)
	}
	return a, nil
}

// CloseAccount soft-disables an account. Transactions referencing it are
// kept forever.
func (s *Service) CloseAccount(ctx context.Context, userUID, accountUID string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE accounts SET status = $3
		WHERE public_id = $1::uuid
		  AND user_id = (SELECT id FROM users WHERE public_id = $2::uuid)`,
		accountUID, userUID, AccountClosed)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Transactions lists the most recent ledger entries for one of the user's
// accounts, or across all of them when accountUID is empty.
func (s *Service) Transactions(ctx context.Context, userUID, accountUID string, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := `
		SELECT t.id, t.public_id::text, t.account_id, t.user_id, t.kind, t.amount, t.balance_after,
		       t.category, t.note, t.reference_type, t.reference_id, t.created_at
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		WHERE u.public_id = $1::uuid
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2`
	args := []any{userUID, limit}
	if accountUID != "" {
		q = `
		SELECT t.id, t.public_id::text, t.account_id, t.user_id, t.kind, t.amount, t.balance_after,
		       t.category, t.note, t.reference_type, t.reference_id, t.created_at
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		JOIN accounts a ON a.id = t.account_id
		WHERE u.public_id = $1::uuid AND a.public_id = $3::uuid
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2`
		args = append(args, accountUID)
	}

	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]Transaction, 0, limit)
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.PublicID, &t.AccountID, &t.UserID, &t.Kind, &t.Amount, &t.BalanceAfter,
			&t.Category, &t.Note, &t.ReferenceType, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, mapPgError(err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
