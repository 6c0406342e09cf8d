package bank

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dhyan-17/Finance-Tracker/internal/ledger"
)

var ErrBankNotFound = errors.New("bank not found")

type Bank struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IFSCRoot string `json:"ifsc_root"`
}

// Service manages the master bank list and bank account linking. Linking is
// simulated: no aggregator calls, the account starts with a stated balance.
type Service struct {
	Pool   *pgxpool.Pool
	Ledger *ledger.Service
}

func NewService(pool *pgxpool.Pool, l *ledger.Service) *Service {
	return &Service{Pool: pool, Ledger: l}
}

// Banks lists the supported banks.
func (s *Service) Banks(ctx context.Context) ([]Bank, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, ifsc_root FROM banks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Bank, 0)
	for rows.Next() {
		var b Bank
		if err := rows.Scan(&b.ID, &b.Name, &b.IFSCRoot); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Link opens a BANK account tied to a master bank. A non-zero starting
// balance lands as an ADJUSTMENT credit so the account history sums to the
// balance from day one.
func (s *Service) Link(ctx context.Context, userUID string, bankID int64, lastFour string, startingBalance int64) (ledger.Account, error) {
	if startingBalance < 0 {
		return ledger.Account{}, ledger.ErrInvalidAmount
	}
	lastFour = strings.TrimSpace(lastFour)

	var bankName string
	err := s.Pool.QueryRow(ctx, `SELECT name FROM banks WHERE id = $1`, bankID).Scan(&bankName)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, ErrBankNotFound
	}
	if err != nil {
		return ledger.Account{}, err
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ledger.Account{}, err
	}
	defer tx.Rollback(ctx)

	name := bankName
	if lastFour != "" {
		name = bankName + " ****" + lastFour
	}

	var a ledger.Account
	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (user_id, kind, name, bank_id, last_four)
		SELECT id, $2, $3, $4, NULLIF($5, '') FROM users WHERE public_id = $1::uuid
		RETURNING id, public_id::text, user_id, kind, name, balance, status, created_at`,
		userUID, ledger.AccountBank, name, bankID, lastFour,
	).Scan(&a.ID, &a.PublicID, &a.UserID, &a.Kind, &a.Name, &a.Balance, &a.Status, &a.CreatedAt)
	if err != nil {
		return ledger.Account{}, err
	}

	if startingBalance > 0 {
		note := "Linked balance"
		if _, err := s.Ledger.CreditTx(ctx, tx, a, startingBalance, ledger.KindAdjustment, nil, &note, nil, nil); err != nil {
			return ledger.Account{}, err
		}
		a.Balance = startingBalance
	}

	if err := tx.Commit(ctx); err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}
