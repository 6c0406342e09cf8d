package goal

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dhyan-17/Finance-Tracker/internal/ledger"
	"github.com/Dhyan-17/Finance-Tracker/internal/money"
	"github.com/Dhyan-17/Finance-Tracker/internal/notify"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrGoalClosed   = errors.New("goal is not active")
)

// Goal statuses.
const (
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
	StatusPaused    = "PAUSED"
	StatusCancelled = "CANCELLED"
)

type Goal struct {
	ID           int64     `json:"-"`
	PublicID     string    `json:"id"`
	Name         string    `json:"name"`
	TargetAmount int64     `json:"target_amount"`
	SavedAmount  int64     `json:"saved_amount"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service moves money between the wallet and savings goals. A contribution
// is a wallet debit plus the goal update in one unit; cancelling an unmet
// goal refunds the saved amount the same way.
type Service struct {
	Pool   *pgxpool.Pool
	Ledger *ledger.Service
}

func NewService(pool *pgxpool.Pool, l *ledger.Service) *Service {
	return &Service{Pool: pool, Ledger: l}
}

// Create opens a new savings goal.
func (s *Service) Create(ctx context.Context, userUID, name string, targetAmount int64) (Goal, error) {
	if targetAmount <= 0 {
		return Goal{}, ledger.ErrInvalidAmount
	}
	var g Goal
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO goals (user_id, name, target_amount)
		SELECT id, $2, $3 FROM users WHERE public_id = $1::uuid
		RETURNING id, public_id::text, name, target_amount, saved_amount, status, created_at`,
		userUID, name, targetAmount,
	).Scan(&g.ID, &g.PublicID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Status, &g.CreatedAt)
	return g, err
}

// Goals lists the user's goals, active first.
func (s *Service) Goals(ctx context.Context, userUID string) ([]Goal, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT g.id, g.public_id::text, g.name, g.target_amount, g.saved_amount, g.status, g.created_at
		FROM goals g
		JOIN users u ON u.id = g.user_id
		WHERE u.public_id = $1::uuid
		ORDER BY g.status = 'ACTIVE' DESC, g.created_at DESC`, userUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Goal, 0)
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.PublicID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Status, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func lockGoal(ctx context.Context, tx pgx.Tx, goalUID, userUID string) (Goal, int64, error) {
	var g Goal
	var userID int64
	err := tx.QueryRow(ctx, `
		SELECT g.id, g.public_id::text, g.name, g.target_amount, g.saved_amount, g.status, g.created_at, g.user_id
		FROM goals g
		JOIN users u ON u.id = g.user_id
		WHERE g.public_id = $1::uuid AND u.public_id = $2::uuid
		FOR UPDATE OF g`, goalUID, userUID,
	).Scan(&g.ID, &g.PublicID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Status, &g.CreatedAt, &userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Goal{}, 0, ErrGoalNotFound
	}
	return g, userID, err
}

// Contribute debits the wallet and adds to the goal as one unit. Reaching
// the target flips the goal to COMPLETED in the same write.
func (s *Service) Contribute(ctx context.Context, userUID, goalUID string, amount int64) (Goal, error) {
	if amount <= 0 {
		return Goal{}, ledger.ErrInvalidAmount
	}

	wallet, err := s.Ledger.WalletOf(ctx, userUID)
	if err != nil {
		return Goal{}, err
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Goal{}, err
	}
	defer tx.Rollback(ctx)

	g, _, err := lockGoal(ctx, tx, goalUID, userUID)
	if err != nil {
		return Goal{}, err
	}
	if g.Status != StatusActive {
		return Goal{}, ErrGoalClosed
	}

	account, err := ledger.LockAccount(ctx, tx, wallet.PublicID, userUID)
	if err != nil {
		return Goal{}, err
	}

	ref := &ledger.Reference{Type: "goal", ID: g.ID}
	note := "Saved towards " + g.Name
	txn, err := s.Ledger.DebitTx(ctx, tx, account, amount, ledger.KindExpense, strPtr("Savings"), &note, ref, nil)
	if err != nil {
		return Goal{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO goal_contributions (goal_id, amount) VALUES ($1, $2)`, g.ID, amount); err != nil {
		return Goal{}, err
	}

	g.SavedAmount += amount
	if g.SavedAmount >= g.TargetAmount {
		g.Status = StatusCompleted
	}
	if _, err := tx.Exec(ctx, `
		UPDATE goals SET saved_amount = $2, status = $3 WHERE id = $1`,
		g.ID, g.SavedAmount, g.Status); err != nil {
		return Goal{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Goal{}, err
	}

	s.Ledger.AfterWrite(ctx, txn)
	if g.Status == StatusCompleted {
		if err := notify.Push(ctx, s.Pool, account.UserID,
			"Goal reached",
			g.Name+" hit its target of "+money.PaiseToRupeesString(g.TargetAmount),
			notify.KindSuccess); err != nil {
			log.Printf("goal: notify completion: %v", err)
		}
	}
	return g, nil
}

// SetStatus pauses or resumes an active goal.
func (s *Service) SetStatus(ctx context.Context, userUID, goalUID, status string) error {
	if status != StatusActive && status != StatusPaused {
		return ErrGoalClosed
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE goals g SET status = $3
		FROM users u
		WHERE g.public_id = $1::uuid AND u.id = g.user_id AND u.public_id = $2::uuid
		  AND g.status IN ('ACTIVE', 'PAUSED')`,
		goalUID, userUID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// Cancel closes a goal and refunds anything saved back to the wallet, as
// one unit. Completed goals cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, userUID, goalUID string) (Goal, error) {
	wallet, err := s.Ledger.WalletOf(ctx, userUID)
	if err != nil {
		return Goal{}, err
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Goal{}, err
	}
	defer tx.Rollback(ctx)

	g, _, err := lockGoal(ctx, tx, goalUID, userUID)
	if err != nil {
		return Goal{}, err
	}
	if g.Status == StatusCompleted || g.Status == StatusCancelled {
		return Goal{}, ErrGoalClosed
	}

	var txn ledger.Transaction
	refunded := false
	if g.SavedAmount > 0 {
		account, err := ledger.LockAccount(ctx, tx, wallet.PublicID, userUID)
		if err != nil {
			return Goal{}, err
		}
		ref := &ledger.Reference{Type: "goal", ID: g.ID}
		note := "Refund from cancelled goal " + g.Name
		txn, err = s.Ledger.CreditTx(ctx, tx, account, g.SavedAmount, ledger.KindRefund, strPtr("Savings"), &note, ref, nil)
		if err != nil {
			return Goal{}, err
		}
		refunded = true
	}

	g.Status = StatusCancelled
	if _, err := tx.Exec(ctx, `
		UPDATE goals SET status = $2, saved_amount = 0 WHERE id = $1`, g.ID, g.Status); err != nil {
		return Goal{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Goal{}, err
	}

	if refunded {
		s.Ledger.AfterWrite(ctx, txn)
	}
	g.SavedAmount = 0
	return g, nil
}

func strPtr(s string) *string { return &s }
