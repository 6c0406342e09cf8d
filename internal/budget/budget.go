package budget

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidBudget = errors.New("budget limit must be greater than zero")

// Spending states relative to the limit.
const (
	StatusOK       = "OK"
	StatusWarning  = "WARNING"  // 80% of the limit reached
	StatusExceeded = "EXCEEDED" // spent past the limit
)

const warningRatio = 0.8

type Budget struct {
	ID          int64   `json:"id"`
	Category    string  `json:"category"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	LimitAmount int64   `json:"limit_amount"`
	Spent       int64   `json:"spent"`
	Remaining   int64   `json:"remaining"`
	UsedPercent float64 `json:"used_percent"`
	Status      string  `json:"status"`
}

// statusOf classifies spending against a limit. Exactly at the limit is
// still WARNING; EXCEEDED means strictly over.
func statusOf(spent, limit int64) string {
	switch {
	case spent > limit:
		return StatusExceeded
	case float64(spent) >= float64(limit)*warningRatio:
		return StatusWarning
	default:
		return StatusOK
	}
}

func usedPercent(spent, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(spent) / float64(limit) * 100
}

type Service struct {
	Pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{Pool: pool}
}

// Set creates or replaces the budget for a category and month.
func (s *Service) Set(ctx context.Context, userUID, category string, year, month int, limitAmount int64) error {
	if limitAmount <= 0 {
		return ErrInvalidBudget
	}
	if year == 0 {
		now := time.Now()
		year, month = now.Year(), int(now.Month())
	}
	if month < 1 || month > 12 {
		return ErrInvalidBudget
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO budgets (user_id, category, year, month, limit_amount)
		SELECT id, $2, $3, $4, $5 FROM users WHERE public_id = $1::uuid
		ON CONFLICT (user_id, category, year, month)
		DO UPDATE SET limit_amount = EXCLUDED.limit_amount`,
		userUID, category, year, month, limitAmount)
	return err
}

// ForMonth lists the user's budgets for a month with spending computed from
// the ledger. Spending is the sum of EXPENSE debits in the matching category.
func (s *Service) ForMonth(ctx context.Context, userUID string, year, month int) ([]Budget, error) {
	if year == 0 || month < 1 || month > 12 {
		now := time.Now()
		year, month = now.Year(), int(now.Month())
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT b.id, b.category, b.year, b.month, b.limit_amount,
		       COALESCE((
		           SELECT SUM(-t.amount) FROM transactions t
		           WHERE t.user_id = b.user_id
		             AND t.kind = 'EXPENSE'
		             AND t.category = b.category
		             AND EXTRACT(YEAR FROM t.created_at) = b.year
		             AND EXTRACT(MONTH FROM t.created_at) = b.month
		       ), 0)::bigint AS spent
		FROM budgets b
		JOIN users u ON u.id = b.user_id
		WHERE u.public_id = $1::uuid AND b.year = $2 AND b.month = $3
		ORDER BY b.category`, userUID, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Budget, 0)
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.Year, &b.Month, &b.LimitAmount, &b.Spent); err != nil {
			return nil, err
		}
		b.Remaining = b.LimitAmount - b.Spent
		b.UsedPercent = usedPercent(b.Spent, b.LimitAmount)
		b.Status = statusOf(b.Spent, b.LimitAmount)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Delete removes one budget row.
func (s *Service) Delete(ctx context.Context, userUID string, budgetID int64) error {
	tag, err := s.Pool.Exec(ctx, `
		DELETE FROM budgets
		WHERE id = $2 AND user_id = (SELECT id FROM users WHERE public_id = $1::uuid)`,
		userUID, budgetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("budget not found")
	}
	return nil
}
