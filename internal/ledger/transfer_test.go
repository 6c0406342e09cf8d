package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptTx satisfies pgx.Tx so the multi-statement transfer path can be
// exercised without a server. Every statement is recorded in order; the
// credit leg's transaction insert can be made to fail.
type scriptTx struct {
	stmts            []string
	args             [][]any
	txnInserts       int
	failSecondTxnRow bool
	nextID           int64
}

func (f *scriptTx) record(sql string, args []any) {
	f.stmts = append(f.stmts, sql)
	f.args = append(f.args, args)
}

func (f *scriptTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *scriptTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	if strings.Contains(sql, "INSERT INTO transactions") {
		f.txnInserts++
		if f.failSecondTxnRow && f.txnInserts == 2 {
			return scriptRow{err: errors.New("connection reset by peer")}
		}
	}
	f.nextID++
	return scriptRow{id: f.nextID}
}

func (f *scriptTx) Begin(context.Context) (pgx.Tx, error) { return f, nil }
func (f *scriptTx) Commit(context.Context) error          { return nil }
func (f *scriptTx) Rollback(context.Context) error        { return nil }
func (f *scriptTx) Conn() *pgx.Conn                       { return nil }
func (f *scriptTx) LargeObjects() pgx.LargeObjects        { return pgx.LargeObjects{} }

func (f *scriptTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (f *scriptTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not scripted")
}

func (f *scriptTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not scripted")
}

func (f *scriptTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not scripted")
}

type scriptRow struct {
	id  int64
	err error
}

func (r scriptRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for _, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.id
		case *string:
			*p = "00000000-0000-0000-0000-000000000001"
		case *time.Time:
			*p = time.Now()
		}
	}
	return nil
}

func (f *scriptTx) balanceWrites() []int64 {
	var out []int64
	for i, sql := range f.stmts {
		if strings.Contains(sql, "UPDATE accounts SET balance") {
			out = append(out, f.args[i][0].(int64))
		}
	}
	return out
}

func (f *scriptTx) markedCompleted() bool {
	for _, sql := range f.stmts {
		if strings.Contains(sql, "UPDATE transfers SET status") {
			return true
		}
	}
	return false
}

func TestTransferTxMovesBothLegs(t *testing.T) {
	svc := &Service{}
	ftx := &scriptTx{}
	sender := Account{ID: 1, UserID: 10, Name: "Wallet", Balance: 100000, Status: AccountActive}
	receiver := Account{ID: 2, UserID: 11, Name: "Wallet", Balance: 50000, Status: AccountActive}

	tr, err := svc.transferTx(context.Background(), ftx, sender, receiver, 30000, nil)
	require.NoError(t, err)
	assert.Equal(t, TransferCompleted, tr.Status)
	assert.Equal(t, int64(30000), tr.Amount)

	// Debit leg first: 1000.00 - 300.00 = 700.00, then 500.00 + 300.00.
	balances := ftx.balanceWrites()
	require.Len(t, balances, 2)
	assert.Equal(t, int64(70000), balances[0])
	assert.Equal(t, int64(80000), balances[1])
	assert.True(t, ftx.markedCompleted())
}

func TestTransferTxCreditLegFailure(t *testing.T) {
	svc := &Service{}
	ftx := &scriptTx{failSecondTxnRow: true}
	sender := Account{ID: 1, UserID: 10, Name: "Wallet", Balance: 100000, Status: AccountActive}
	receiver := Account{ID: 2, UserID: 11, Name: "Wallet", Balance: 50000, Status: AccountActive}

	_, err := svc.transferTx(context.Background(), ftx, sender, receiver, 30000, nil)
	require.Error(t, err)

	// The error surfaces before the COMPLETED flip, so the caller rolls the
	// whole unit back and the debit that landed inside it is discarded with
	// everything else.
	assert.False(t, ftx.markedCompleted(),
		"a transfer must never be COMPLETED once a leg has failed")
}

func TestTransferTxInsufficientFunds(t *testing.T) {
	svc := &Service{}
	ftx := &scriptTx{}
	sender := Account{ID: 1, UserID: 10, Name: "Wallet", Balance: 100, Status: AccountActive}
	receiver := Account{ID: 2, UserID: 11, Name: "Wallet", Balance: 50000, Status: AccountActive}

	_, err := svc.transferTx(context.Background(), ftx, sender, receiver, 30000, nil)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Empty(t, ftx.balanceWrites(), "sender balance is untouched when it cannot cover the amount")
	assert.False(t, ftx.markedCompleted())
}

func TestTransferTxClosedReceiver(t *testing.T) {
	svc := &Service{}
	ftx := &scriptTx{}
	sender := Account{ID: 1, Balance: 100000, Status: AccountActive}
	receiver := Account{ID: 2, Balance: 0, Status: AccountClosed}

	_, err := svc.transferTx(context.Background(), ftx, sender, receiver, 1000, nil)
	require.ErrorIs(t, err, ErrAccountClosed)
	assert.Empty(t, ftx.stmts, "nothing is written against a closed account")
}
