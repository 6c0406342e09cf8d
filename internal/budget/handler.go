package budget

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

type setRequest struct {
	Category    string `json:"category"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	LimitAmount int64  `json:"limit_amount"`
}

// SetBudget creates or replaces a monthly category budget.
func (h *Handler) SetBudget(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req setRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		return fiber.NewError(fiber.StatusBadRequest, "category required")
	}

	if err := h.Svc.Set(userContext(c), userUID, req.Category, req.Year, req.Month, req.LimitAmount); err != nil {
		if errors.Is(err, ErrInvalidBudget) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to set budget")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
}

// ListBudgets returns the month's budgets with live spending.
func (h *Handler) ListBudgets(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	budgets, err := h.Svc.ForMonth(userContext(c), userUID, c.QueryInt("year"), c.QueryInt("month"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list budgets")
	}
	return c.JSON(budgets)
}

// DeleteBudget removes a budget.
func (h *Handler) DeleteBudget(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.Svc.Delete(userContext(c), userUID, int64(id)); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "budget not found")
	}
	return c.JSON(fiber.Map{"ok": true})
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
