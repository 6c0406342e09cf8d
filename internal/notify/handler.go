package notify

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	Pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{Pool: pool}
}

// ListNotifications returns the user's notifications, newest first.
func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	userUID, _ := c.Locals("user_id").(string)
	if strings.TrimSpace(userUID) == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	items, err := List(c.UserContext(), h.Pool, userUID, c.QueryBool("unread"), c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list notifications")
	}
	return c.JSON(fiber.Map{"items": items})
}

// MarkNotificationRead marks one notification read.
func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	userUID, _ := c.Locals("user_id").(string)
	if strings.TrimSpace(userUID) == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	ok, err := MarkRead(c.UserContext(), h.Pool, userUID, int64(id))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to mark notification")
	}
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "notification not found")
	}
	return c.JSON(fiber.Map{"ok": true})
}
