package goal

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

type createRequest struct {
	Name         string `json:"name"`
	TargetAmount int64  `json:"target_amount"`
}

// CreateGoal opens a new savings goal.
func (h *Handler) CreateGoal(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name required")
	}

	g, err := h.Svc.Create(userContext(c), userUID, req.Name, req.TargetAmount)
	if err != nil {
		return ledger.FiberError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(g)
}

// ListGoals returns the user's goals.
func (h *Handler) ListGoals(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	goals, err := h.Svc.Goals(userContext(c), userUID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list goals")
	}
	return c.JSON(goals)
}

type contributeRequest struct {
	Amount int64 `json:"amount"`
}

// Contribute moves money from the wallet into a goal.
func (h *Handler) Contribute(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req contributeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	g, err := h.Svc.Contribute(userContext(c), userUID, c.Params("id"), req.Amount)
	if err != nil {
		return goalError(err)
	}
	return c.JSON(g)
}

type statusRequest struct {
	Status string `json:"status"` // ACTIVE | PAUSED
}

// SetGoalStatus pauses or resumes a goal.
func (h *Handler) SetGoalStatus(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.SetStatus(userContext(c), userUID, c.Params("id"), strings.ToUpper(req.Status)); err != nil {
		return goalError(err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// CancelGoal closes a goal and refunds its saved amount to the wallet.
func (h *Handler) CancelGoal(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	g, err := h.Svc.Cancel(userContext(c), userUID, c.Params("id"))
	if err != nil {
		return goalError(err)
	}
	return c.JSON(g)
}

func goalError(err error) error {
	switch {
	case errors.Is(err, ErrGoalNotFound):
		return fiber.NewError(fiber.StatusNotFound, "goal not found")
	case errors.Is(err, ErrGoalClosed):
		return fiber.NewError(fiber.StatusConflict, "goal is not active")
	default:
		return ledger.FiberError(err)
	}
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
