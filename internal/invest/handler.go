package invest

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Dhyan-17/Finance-Tracker/internal/ledger"
	"github.com/Dhyan-17/Finance-Tracker/internal/market"
)

type Handler struct {
	Svc    *Service
	Market *market.Service
}

func NewHandler(svc *Service, marketSvc *market.Service) *Handler {
	return &Handler{Svc: svc, Market: marketSvc}
}

func (h *Handler) assetBySymbol(ctx context.Context, symbol string) (market.Asset, error) {
	return h.Market.AssetBySymbol(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

type buyRequest struct {
	Symbol    string `json:"symbol"`
	AccountID string `json:"account_id"` // empty = wallet
	Amount    int64  `json:"amount"`     // paise to spend
}

// Buy spends an amount from an account on units of an asset.
func (h *Handler) Buy(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req buyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	asset, err := h.assetBySymbol(userContext(c), req.Symbol)
	if errors.Is(err, market.ErrAssetNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "asset not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load asset")
	}

	accountUID, err := h.resolveAccount(c, userUID, req.AccountID)
	if err != nil {
		return ledger.FiberError(err)
	}

	order, err := h.Svc.Buy(userContext(c), userUID, accountUID, asset.ID, req.Amount)
	if err != nil {
		return ledger.FiberError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

type sellRequest struct {
	Symbol    string `json:"symbol"`
	AccountID string `json:"account_id"` // empty = wallet
	Units     string `json:"units"`
}

// Sell liquidates units of a holding into an account.
func (h *Handler) Sell(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req sellRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	asset, err := h.assetBySymbol(userContext(c), req.Symbol)
	if errors.Is(err, market.ErrAssetNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "asset not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load asset")
	}

	accountUID, err := h.resolveAccount(c, userUID, req.AccountID)
	if err != nil {
		return ledger.FiberError(err)
	}

	order, err := h.Svc.Sell(userContext(c), userUID, accountUID, asset.ID, req.Units)
	if err != nil {
		return ledger.FiberError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// GetPortfolio returns holdings with portfolio-level totals.
func (h *Handler) GetPortfolio(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	p, err := h.Svc.PortfolioOf(userContext(c), userUID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load portfolio")
	}
	return c.JSON(p)
}

// ListOrders returns the user's trade history.
func (h *Handler) ListOrders(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	orders, err := h.Svc.Orders(userContext(c), userUID, c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load orders")
	}
	return c.JSON(fiber.Map{"items": orders})
}

func (h *Handler) resolveAccount(c *fiber.Ctx, userUID, accountUID string) (string, error) {
	if strings.TrimSpace(accountUID) != "" {
		return accountUID, nil
	}
	wallet, err := h.Svc.Ledger.WalletOf(userContext(c), userUID)
	if err != nil {
		return "", err
	}
	return wallet.PublicID, nil
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
