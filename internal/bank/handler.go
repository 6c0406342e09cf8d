package bank

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Dhyan-17/Finance-Tracker/internal/ledger"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// ListBanks returns the master bank list.
func (h *Handler) ListBanks(c *fiber.Ctx) error {
	banks, err := h.Svc.Banks(userContext(c))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list banks")
	}
	return c.JSON(banks)
}

type linkRequest struct {
	BankID          int64  `json:"bank_id"`
	LastFour        string `json:"last_four"`
	StartingBalance int64  `json:"starting_balance"`
}

// LinkAccount opens a bank-backed account for the user.
func (h *Handler) LinkAccount(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req linkRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	a, err := h.Svc.Link(userContext(c), userUID, req.BankID, req.LastFour, req.StartingBalance)
	if errors.Is(err, ErrBankNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "bank not found")
	}
	if err != nil {
		return ledger.FiberError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
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
