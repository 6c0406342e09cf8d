package assistant

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

type queryRequest struct {
	Query string `json:"query"`
}

// Ask answers one natural-language query.
func (h *Handler) Ask(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req queryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query required")
	}

	res, err := h.Svc.Process(c.UserContext(), userUID, req.Query)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to process query")
	}
	return c.JSON(res)
}

// GetHistory lists recent assistant exchanges.
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	userUID, err := extractUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	msgs, err := h.Svc.History(userContext(c), userUID, c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load history")
	}
	return c.JSON(fiber.Map{"items": msgs})
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
