package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

// Cache holds per-user derived aggregates with an explicit invalidation
// contract: every balance-affecting write marks the row stale, and a stale
// row is recomputed before it is served. A cached value is never trusted
// after a write.
type Cache struct {
	Pool *pgxpool.Pool
}

func NewCache(pool *pgxpool.Pool) *Cache {
	return &Cache{Pool: pool}
}

type NetWorth struct {
	NetWorth        int64     `json:"net_worth"`
	AccountBalances int64     `json:"account_balances"`
	InvestmentValue int64     `json:"investment_value"`
	CalculatedAt    time.Time `json:"calculated_at"`
	FromCache       bool      `json:"from_cache"`
}

// Invalidate marks a user's cached aggregates stale. Called after every
// committed transaction that can affect them.
func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	_, err := c.Pool.Exec(ctx, `
		INSERT INTO analytics_cache (user_id, stale) VALUES ($1, TRUE)
		ON CONFLICT (user_id) DO UPDATE SET stale = TRUE`, userID)
	return err
}

// NetWorthOf serves the cached net worth when fresh and recomputes it when
// stale or absent.
func (c *Cache) NetWorthOf(ctx context.Context, userUID string) (NetWorth, error) {
	var userID int64
	if err := c.Pool.QueryRow(ctx, `SELECT id FROM users WHERE public_id = $1::uuid`, userUID).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NetWorth{}, ErrUserNotFound
		}
		return NetWorth{}, err
	}

	var nw NetWorth
	var stale bool
	err := c.Pool.QueryRow(ctx, `
		SELECT net_worth, investment_value, stale, calculated_at
		FROM analytics_cache WHERE user_id = $1`, userID).Scan(&nw.NetWorth, &nw.InvestmentValue, &stale, &nw.CalculatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		stale = true
	case err != nil:
		return NetWorth{}, err
	}

	if !stale {
		nw.AccountBalances = nw.NetWorth - nw.InvestmentValue
		nw.FromCache = true
		return nw, nil
	}
	return c.recompute(ctx, userID)
}

func (c *Cache) recompute(ctx context.Context, userID int64) (NetWorth, error) {
	tx, err := c.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return NetWorth{}, err
	}
	defer tx.Rollback(ctx)

	nw, err := recomputeTx(ctx, tx, userID)
	if err != nil {
		return NetWorth{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return NetWorth{}, err
	}
	return nw, nil
}

// recomputeTx rebuilds the cached aggregates while holding the cache row.
// An Invalidate racing with the recompute queues behind the row lock and
// re-marks the row stale after this commits; clearing stale here can never
// bury an invalidation that arrived during the reads.
func recomputeTx(ctx context.Context, tx pgx.Tx, userID int64) (NetWorth, error) {
	var nw NetWorth

	if _, err := tx.Exec(ctx, `
		INSERT INTO analytics_cache (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return NetWorth{}, err
	}
	if _, err := tx.Exec(ctx, `
		SELECT user_id FROM analytics_cache WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
		return NetWorth{}, err
	}

	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(balance), 0)
		FROM accounts
		WHERE user_id = $1 AND status = 'ACTIVE'`, userID).Scan(&nw.AccountBalances)
	if err != nil {
		return NetWorth{}, err
	}

	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(current_value), 0)
		FROM holdings
		WHERE user_id = $1`, userID).Scan(&nw.InvestmentValue)
	if err != nil {
		return NetWorth{}, err
	}

	nw.NetWorth = nw.AccountBalances + nw.InvestmentValue
	nw.CalculatedAt = time.Now()

	if _, err := tx.Exec(ctx, `
		UPDATE analytics_cache
		SET net_worth = $2, investment_value = $3, stale = FALSE, calculated_at = NOW()
		WHERE user_id = $1`, userID, nw.NetWorth, nw.InvestmentValue); err != nil {
		return NetWorth{}, err
	}
	return nw, nil
}

type MonthlySummary struct {
	Month        string `json:"month"` // YYYY-MM
	TotalIncome  int64  `json:"total_income"`
	TotalExpense int64  `json:"total_expense"`
	Net          int64  `json:"net"`
}

// MonthSummary aggregates a user's income and expense transactions for one
// calendar month (empty month means all time).
func (c *Cache) MonthSummary(ctx context.Context, userUID, month string) (MonthlySummary, error) {
	var income, expense int64
	err := c.Pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(t.amount) FILTER (WHERE t.amount > 0 AND t.kind = 'INCOME'), 0),
			COALESCE(SUM(-t.amount) FILTER (WHERE t.amount < 0 AND t.kind = 'EXPENSE'), 0)
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		WHERE u.public_id = $1::uuid
		  AND ($2 = '' OR to_char(t.created_at, 'YYYY-MM') = $2)`,
		userUID, month).Scan(&income, &expense)
	if err != nil {
		return MonthlySummary{}, err
	}
	return MonthlySummary{
		Month:        month,
		TotalIncome:  income,
		TotalExpense: expense,
		Net:          income - expense,
	}, nil
}

type CategorySpend struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
	Count    int64  `json:"count"`
}

// CategoryBreakdown sums a user's expense transactions per category for one
// calendar month.
func (c *Cache) CategoryBreakdown(ctx context.Context, userUID, month string) ([]CategorySpend, error) {
	rows, err := c.Pool.Query(ctx, `
		SELECT COALESCE(t.category, 'Uncategorized'), SUM(-t.amount), COUNT(*)
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		WHERE u.public_id = $1::uuid
		  AND t.kind = 'EXPENSE'
		  AND ($2 = '' OR to_char(t.created_at, 'YYYY-MM') = $2)
		GROUP BY 1
		ORDER BY 2 DESC`, userUID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CategorySpend, 0)
	for rows.Next() {
		var c CategorySpend
		if err := rows.Scan(&c.Category, &c.Total, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
