package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type entryRequest struct {
	AccountID      string  `json:"account_id"` // empty = wallet
	Amount         int64   `json:"amount"`     // paise
	Category       *string `json:"category"`
	Note           *string `json:"note"`
	IdempotencyKey *string `json:"idempotency_key"`
}

func (h *Handler) resolveAccount(c *fiber.Ctx, userUID, accountUID string) (string, error) {
	if strings.TrimSpace(accountUID) != "" {
		return accountUID, nil
	}
	wallet, err := h.Svc.WalletOf(userContext(c), userUID)
	if err != nil {
		return "", err
	}
	return wallet.PublicID, nil
}

// AddIncome credits an account and appends the INCOME transaction.
func (h *Handler) AddIncome(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req entryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	accountUID, err := h.resolveAccount(c, userUID, req.AccountID)
	if err != nil {
		return FiberError(err)
	}

	t, err := h.Svc.Credit(userContext(c), userUID, accountUID, req.Amount, KindIncome, req.Category, req.Note, nil, req.IdempotencyKey)
	if err != nil {
		return FiberError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// AddExpense debits an account and appends the EXPENSE transaction.
func (h *Handler) AddExpense(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req entryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	accountUID, err := h.resolveAccount(c, userUID, req.AccountID)
	if err != nil {
		return FiberError(err)
	}

	t, err := h.Svc.Debit(userContext(c), userUID, accountUID, req.Amount, KindExpense, req.Category, req.Note, nil, req.IdempotencyKey)
	if err != nil {
		return FiberError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

type transferRequest struct {
	FromAccountID string  `json:"from_account_id"` // empty = wallet
	ToAccountID   string  `json:"to_account_id"`
	Amount        int64   `json:"amount"`
	Note          *string `json:"note"`
}

// DoTransfer moves money between two accounts as one atomic unit.
func (h *Handler) DoTransfer(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.ToAccountID) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "to_account_id required")
	}

	fromUID, err := h.resolveAccount(c, userUID, req.FromAccountID)
	if err != nil {
		return FiberError(err)
	}

	tr, err := h.Svc.Transfer(userContext(c), userUID, fromUID, req.ToAccountID, req.Amount, req.Note)
	if err != nil {
		return FiberError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(tr)
}

// ListAccounts returns the user's accounts, wallet first.
func (h *Handler) ListAccounts(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	accounts, err := h.Svc.Accounts(userContext(c), userUID)
	if err != nil {
		return FiberError(err)
	}
	return c.JSON(accounts)
}

type createManualRequest struct {
	Name           string `json:"name"`
	OpeningBalance int64  `json:"opening_balance"`
}

// CreateManualAccount opens a manually tracked account.
func (h *Handler) CreateManualAccount(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createManualRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name required")
	}

	a, err := h.Svc.CreateManualAccount(userContext(c), userUID, req.Name, req.OpeningBalance)
	if err != nil {
		return FiberError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

// CloseAccount soft-disables an account.
func (h *Handler) CloseAccount(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	if err := h.Svc.CloseAccount(userContext(c), userUID, c.Params("id")); err != nil {
		return FiberError(err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ListTransactions returns the most recent ledger entries.
func (h *Handler) ListTransactions(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	items, err := h.Svc.Transactions(userContext(c), userUID, c.Query("account_id"), c.QueryInt("limit"))
	if err != nil {
		return FiberError(err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func extractUserID(c *fiber.Ctx) (string, error) {
	val := c.Locals("user_id")
	if val == nil {
		return "", errors.New("user id missing")
	}
	if uid, ok := val.(string); ok && strings.TrimSpace(uid) != "" {
		return uid, nil
	}
	return "", errors.New("user id missing")
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
