package ledger

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dhyan-17/Finance-Tracker/internal/analytics"
	"github.com/Dhyan-17/Finance-Tracker/internal/audit"
	"github.com/Dhyan-17/Finance-Tracker/internal/fraud"
	"github.com/Dhyan-17/Finance-Tracker/internal/money"
	"github.com/Dhyan-17/Finance-Tracker/internal/notify"
)

// Service is the single writer of balance-affecting state. Every operation
// that touches more than one row runs as one pgx transaction; account rows
// are locked FOR UPDATE so concurrent writers serialize instead of losing
// updates.
type Service struct {
	Pool  *pgxpool.Pool
	Fraud *fraud.Service
	Cache *analytics.Cache
}

func NewService(pool *pgxpool.Pool, fraudSvc *fraud.Service, cache *analytics.Cache) *Service {
	return &Service{Pool: pool, Fraud: fraudSvc, Cache: cache}
}

// lockAccount loads an account row under FOR UPDATE inside tx. When userUID
// is non-empty the account must belong to that user.
func lockAccount(ctx context.Context, tx pgx.Tx, accountUID, userUID string) (Account, error) {
	q := `
		SELECT a.id, a.public_id::text, a.user_id, a.kind, a.name, a.balance, a.status
		FROM accounts a
		WHERE a.public_id = $1::uuid
		FOR UPDATE`
	args := []any{accountUID}
	if userUID != "" {
		q = `
		SELECT a.id, a.public_id::text, a.user_id, a.kind, a.name, a.balance, a.status
		FROM accounts a
		WHERE a.public_id = $1::uuid
		  AND a.user_id = (SELECT id FROM users WHERE public_id = $2::uuid)
		FOR UPDATE`
		args = append(args, userUID)
	}

	var a Account
	err := tx.QueryRow(ctx, q, args...).Scan(&a.ID, &a.PublicID, &a.UserID, &a.Kind, &a.Name, &a.Balance, &a.Status)
	if err != nil {
		return Account{}, mapPgError(err)
	}
	return a, nil
}

// LockAccount exposes row locking to packages that compose their own writes
// with a ledger leg (investments, goals) inside a caller-owned tx.
func LockAccount(ctx context.Context, tx pgx.Tx, accountUID, userUID string) (Account, error) {
	return lockAccount(ctx, tx, accountUID, userUID)
}

func lockAccountByID(ctx context.Context, tx pgx.Tx, id int64) (Account, error) {
	var a Account
	err := tx.QueryRow(ctx, `
		SELECT id, public_id::text, user_id, kind, name, balance, status
		FROM accounts WHERE id = $1
		FOR UPDATE`, id).Scan(&a.ID, &a.PublicID, &a.UserID, &a.Kind, &a.Name, &a.Balance, &a.Status)
	if err != nil {
		return Account{}, mapPgError(err)
	}
	return a, nil
}

// insertEntry applies an already-validated balance move: it updates the
// account row and appends the matching transaction in the same tx.
func insertEntry(ctx context.Context, tx pgx.Tx, a Account, newBalance, signed int64, kind Kind, category, note *string, ref *Reference, idemKey *string) (Transaction, error) {
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, newBalance, a.ID); err != nil {
		return Transaction{}, mapPgError(err)
	}

	var refType *string
	var refID *int64
	if ref != nil {
		refType = &ref.Type
		refID = &ref.ID
	}

	t := Transaction{
		AccountID:     a.ID,
		UserID:        a.UserID,
		Kind:          kind,
		Amount:        signed,
		BalanceAfter:  newBalance,
		Category:      category,
		Note:          note,
		ReferenceType: refType,
		ReferenceID:   refID,
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO transactions (account_id, user_id, kind, amount, balance_after, category, note, reference_type, reference_id, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, public_id::text, created_at`,
		a.ID, a.UserID, string(kind), signed, newBalance, category, note, refType, refID, idemKey,
	).Scan(&t.ID, &t.PublicID, &t.CreatedAt)
	if err != nil {
		return Transaction{}, mapPgError(err)
	}
	return t, nil
}

// CreditTx applies a credit to a locked account inside a caller-owned tx.
// Used by transfer legs, investment sells and goal refunds so they compose
// with their surrounding writes atomically.
func (s *Service) CreditTx(ctx context.Context, tx pgx.Tx, a Account, amount int64, kind Kind, category, note *string, ref *Reference, idemKey *string) (Transaction, error) {
	if !creditKindOK(kind) {
		return Transaction{}, ErrInvalidAmount
	}
	if a.Status != AccountActive {
		return Transaction{}, ErrAccountClosed
	}
	newBalance, signed, err := creditEntry(a.Balance, amount)
	if err != nil {
		return Transaction{}, err
	}
	return insertEntry(ctx, tx, a, newBalance, signed, kind, category, note, ref, idemKey)
}

// DebitTx applies a debit to a locked account inside a caller-owned tx.
func (s *Service) DebitTx(ctx context.Context, tx pgx.Tx, a Account, amount int64, kind Kind, category, note *string, ref *Reference, idemKey *string) (Transaction, error) {
	if !debitKindOK(kind) {
		return Transaction{}, ErrInvalidAmount
	}
	if a.Status != AccountActive {
		return Transaction{}, ErrAccountClosed
	}
	newBalance, signed, err := debitEntry(a.Balance, amount)
	if err != nil {
		return Transaction{}, err
	}
	return insertEntry(ctx, tx, a, newBalance, signed, kind, category, note, ref, idemKey)
}

// Credit increments an account balance and appends the transaction with the
// post-credit balance snapshot, as one unit.
func (s *Service) Credit(ctx context.Context, userUID, accountUID string, amount int64, kind Kind, category, note *string, ref *Reference, idemKey *string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, mapPgError(err)
	}
	defer tx.Rollback(ctx)

	a, err := lockAccount(ctx, tx, accountUID, userUID)
	if err != nil {
		return Transaction{}, err
	}
	t, err := s.CreditTx(ctx, tx, a, amount, kind, category, note, ref, idemKey)
	if err != nil {
		return Transaction{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, mapPgError(err)
	}

	s.AfterWrite(ctx, t)
	return t, nil
}

// Debit decrements an account balance; it fails with ErrInsufficientFunds
// before any write when the balance cannot cover the amount.
func (s *Service) Debit(ctx context.Context, userUID, accountUID string, amount int64, kind Kind, category, note *string, ref *Reference, idemKey *string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, mapPgError(err)
	}
	defer tx.Rollback(ctx)

	a, err := lockAccount(ctx, tx, accountUID, userUID)
	if err != nil {
		return Transaction{}, err
	}
	t, err := s.DebitTx(ctx, tx, a, amount, kind, category, note, ref, idemKey)
	if err != nil {
		return Transaction{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, mapPgError(err)
	}

	s.AfterWrite(ctx, t)
	return t, nil
}

// Transfer moves amount from the sender account to the receiver account.
// Both legs and the transfer row are one unit: if the credit leg cannot be
// applied the debit never lands. The two account rows are locked in
// ascending id order so two opposing transfers cannot deadlock.
func (s *Service) Transfer(ctx context.Context, userUID, senderUID, receiverUID string, amount int64, note *string) (Transfer, error) {
	if amount <= 0 {
		return Transfer{}, ErrInvalidAmount
	}
	if senderUID == receiverUID {
		return Transfer{}, ErrInvalidAmount
	}

	var senderID, receiverID int64
	err := s.Pool.QueryRow(ctx, `
		SELECT s.id, r.id
		FROM accounts s
		JOIN users u ON u.id = s.user_id AND u.public_id = $3::uuid
		JOIN accounts r ON r.public_id = $2::uuid
		WHERE s.public_id = $1::uuid`,
		senderUID, receiverUID, userUID,
	).Scan(&senderID, &receiverID)
	if err != nil {
		return Transfer{}, mapPgError(err)
	}

	tr, err := s.transferLocked(ctx, senderID, receiverID, amount, note)
	if err != nil {
		// Record the failed attempt outside the unit, best-effort. No
		// balance was touched.
		_, ierr := s.Pool.Exec(ctx, `
			INSERT INTO transfers (sender_account_id, receiver_account_id, amount, note, status)
			VALUES ($1, $2, $3, $4, $5)`,
			senderID, receiverID, amount, note, TransferFailed)
		if ierr != nil {
			log.Printf("ledger: record failed transfer: %v", ierr)
		}
		return Transfer{}, err
	}
	return tr, nil
}

func (s *Service) transferLocked(ctx context.Context, senderID, receiverID int64, amount int64, note *string) (Transfer, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transfer{}, mapPgError(err)
	}
	defer tx.Rollback(ctx)

	first, second := senderID, receiverID
	if second < first {
		first, second = second, first
	}
	a1, err := lockAccountByID(ctx, tx, first)
	if err != nil {
		return Transfer{}, err
	}
	a2, err := lockAccountByID(ctx, tx, second)
	if err != nil {
		return Transfer{}, err
	}
	sender, receiver := a1, a2
	if sender.ID != senderID {
		sender, receiver = a2, a1
	}

	tr, err := s.transferTx(ctx, tx, sender, receiver, amount, note)
	if err != nil {
		return Transfer{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Transfer{}, mapPgError(err)
	}

	s.afterTransfer(ctx, sender, receiver, tr)
	return tr, nil
}

// transferTx writes the transfer row and both legs inside a caller-owned tx.
// Any failure surfaces before the caller can commit, so either both legs are
// durable or neither is; the transfer is only marked COMPLETED after the
// credit leg has been applied.
func (s *Service) transferTx(ctx context.Context, tx pgx.Tx, sender, receiver Account, amount int64, note *string) (Transfer, error) {
	if sender.Status != AccountActive || receiver.Status != AccountActive {
		return Transfer{}, ErrAccountClosed
	}

	tr := Transfer{
		SenderAccountID:   sender.ID,
		ReceiverAccountID: receiver.ID,
		Amount:            amount,
		Note:              note,
		Status:            TransferPending,
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO transfers (sender_account_id, receiver_account_id, amount, note, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, public_id::text, created_at`,
		sender.ID, receiver.ID, amount, note, TransferPending,
	).Scan(&tr.ID, &tr.PublicID, &tr.CreatedAt)
	if err != nil {
		return Transfer{}, mapPgError(err)
	}

	ref := &Reference{Type: "transfer", ID: tr.ID}
	debitNote := "Transfer to " + receiver.Name
	creditNote := "Transfer from " + sender.Name
	if _, err := s.DebitTx(ctx, tx, sender, amount, KindTransferOut, nil, &debitNote, ref, nil); err != nil {
		return Transfer{}, err
	}
	if _, err := s.CreditTx(ctx, tx, receiver, amount, KindTransferIn, nil, &creditNote, ref, nil); err != nil {
		return Transfer{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE transfers SET status = $1 WHERE id = $2`, TransferCompleted, tr.ID); err != nil {
		return Transfer{}, mapPgError(err)
	}
	tr.Status = TransferCompleted
	return tr, nil
}

// AfterWrite runs the post-commit side effects of a balance write: fraud
// evaluation, analytics invalidation and the audit trail. None of them may
// fail the already-committed transaction; failures are logged.
func (s *Service) AfterWrite(ctx context.Context, t Transaction) {
	if s.Fraud != nil {
		refType := "transaction"
		s.Fraud.CheckTransaction(ctx, fraud.Event{
			UserID:        t.UserID,
			Amount:        abs(t.Amount),
			Kind:          string(t.Kind),
			ReferenceType: refType,
			ReferenceID:   t.ID,
		})
	}
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, t.UserID); err != nil {
			log.Printf("ledger: invalidate analytics cache for user %d: %v", t.UserID, err)
		}
	}
	userID := t.UserID
	entityID := t.PublicID
	if err := audit.Write(ctx, s.Pool, audit.Entry{
		UserID:     &userID,
		Action:     "ledger." + string(t.Kind),
		EntityType: "transaction",
		EntityID:   &entityID,
	}); err != nil {
		log.Printf("ledger: audit write: %v", err)
	}
}

func (s *Service) afterTransfer(ctx context.Context, sender, receiver Account, tr Transfer) {
	if s.Fraud != nil {
		s.Fraud.CheckTransaction(ctx, fraud.Event{
			UserID:        sender.UserID,
			Amount:        tr.Amount,
			Kind:          string(KindTransferOut),
			ReferenceType: "transfer",
			ReferenceID:   tr.ID,
		})
	}
	if s.Cache != nil {
		for _, uid := range []int64{sender.UserID, receiver.UserID} {
			if err := s.Cache.Invalidate(ctx, uid); err != nil {
				log.Printf("ledger: invalidate analytics cache for user %d: %v", uid, err)
			}
		}
	}
	if err := notify.Push(ctx, s.Pool, receiver.UserID,
		"Money received",
		"You received "+money.PaiseToRupeesString(tr.Amount)+" into "+receiver.Name,
		notify.KindSuccess); err != nil {
		log.Printf("ledger: notify receiver: %v", err)
	}
	senderUser := sender.UserID
	entityID := tr.PublicID
	if err := audit.Write(ctx, s.Pool, audit.Entry{
		UserID:     &senderUser,
		Action:     "ledger.TRANSFER",
		EntityType: "transfer",
		EntityID:   &entityID,
	}); err != nil {
		log.Printf("ledger: audit write: %v", err)
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
