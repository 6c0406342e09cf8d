package ledger

import "time"

// Account kinds.
const (
	AccountWallet = "WALLET"
	AccountBank   = "BANK"
	AccountManual = "MANUAL"
)

// Account statuses.
const (
	AccountActive = "ACTIVE"
	AccountClosed = "CLOSED"
)

// Transaction kinds. The ledger operation (credit vs debit) decides the
// sign; the kind records why the balance moved.
type Kind string

const (
	KindIncome      Kind = "INCOME"
	KindExpense     Kind = "EXPENSE"
	KindTransferIn  Kind = "TRANSFER_IN"
	KindTransferOut Kind = "TRANSFER_OUT"
	KindInvestment  Kind = "INVESTMENT"
	KindRefund      Kind = "REFUND"
	KindFee         Kind = "FEE"
	KindAdjustment  Kind = "ADJUSTMENT"
)

// Transfer statuses.
const (
	TransferPending   = "PENDING"
	TransferCompleted = "COMPLETED"
	TransferFailed    = "FAILED"
	TransferReversed  = "REVERSED"
)

type Account struct {
	ID        int64     `json:"-"`
	PublicID  string    `json:"id"`
	UserID    int64     `json:"-"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Balance   int64     `json:"balance"`
	Status    string    `json:"status"`
	BankID    *int64    `json:"-"`
	LastFour  *string   `json:"last_four,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Transaction struct {
	ID            int64     `json:"-"`
	PublicID      string    `json:"id"`
	AccountID     int64     `json:"-"`
	UserID        int64     `json:"-"`
	Kind          Kind      `json:"kind"`
	Amount        int64     `json:"amount"` // signed
	BalanceAfter  int64     `json:"balance_after"`
	Category      *string   `json:"category,omitempty"`
	Note          *string   `json:"note,omitempty"`
	ReferenceType *string   `json:"reference_type,omitempty"`
	ReferenceID   *int64    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

type Transfer struct {
	ID                int64     `json:"-"`
	PublicID          string    `json:"id"`
	SenderAccountID   int64     `json:"-"`
	ReceiverAccountID int64     `json:"-"`
	Amount            int64     `json:"amount"`
	Note              *string   `json:"note,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// Reference ties a transaction to the entity that caused it.
type Reference struct {
	Type string
	ID   int64
}
