package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordTx satisfies pgx.Tx and records statements in order, answering the
// two aggregate reads with fixed sums.
type recordTx struct {
	stmts []string
}

func (f *recordTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.stmts = append(f.stmts, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *recordTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.stmts = append(f.stmts, sql)
	switch {
	case strings.Contains(sql, "FROM accounts"):
		return sumRow{v: 70000}
	case strings.Contains(sql, "FROM holdings"):
		return sumRow{v: 30000}
	}
	return sumRow{}
}

func (f *recordTx) Begin(context.Context) (pgx.Tx, error) { return f, nil }
func (f *recordTx) Commit(context.Context) error          { return nil }
func (f *recordTx) Rollback(context.Context) error        { return nil }
func (f *recordTx) Conn() *pgx.Conn                       { return nil }
func (f *recordTx) LargeObjects() pgx.LargeObjects        { return pgx.LargeObjects{} }

func (f *recordTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (f *recordTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not scripted")
}

func (f *recordTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not scripted")
}

func (f *recordTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not scripted")
}

type sumRow struct{ v int64 }

func (r sumRow) Scan(dest ...any) error {
	if p, ok := dest[0].(*int64); ok {
		*p = r.v
	}
	return nil
}

func TestRecomputeLocksRowBeforeReading(t *testing.T) {
	ftx := &recordTx{}
	nw, err := recomputeTx(context.Background(), ftx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(70000), nw.AccountBalances)
	assert.Equal(t, int64(30000), nw.InvestmentValue)
	assert.Equal(t, int64(100000), nw.NetWorth)

	idx := func(substr string) int {
		for i, sql := range ftx.stmts {
			if strings.Contains(sql, substr) {
				return i
			}
		}
		return -1
	}

	lock := idx("FOR UPDATE")
	require.GreaterOrEqual(t, lock, 0, "recompute must lock the cache row")
	// The lock must be held across the reads AND the stale clear: an
	// Invalidate racing in queues behind it instead of being overwritten.
	assert.Less(t, lock, idx("FROM accounts"))
	assert.Less(t, lock, idx("FROM holdings"))
	assert.Less(t, lock, idx("stale = FALSE"))
	assert.GreaterOrEqual(t, idx("stale = FALSE"), 0)
}
