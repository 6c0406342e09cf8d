package analytics

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	Cache *Cache
}

func NewHandler(cache *Cache) *Handler {
	return &Handler{Cache: cache}
}

// GetNetWorth serves the cached net worth, recomputing when stale.
func (h *Handler) GetNetWorth(c *fiber.Ctx) error {
	userUID, _ := c.Locals("user_id").(string)
	if strings.TrimSpace(userUID) == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	nw, err := h.Cache.NetWorthOf(c.UserContext(), userUID)
	if errors.Is(err, ErrUserNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to compute net worth")
	}
	return c.JSON(nw)
}

// GetMonthSummary aggregates income and expense for one month
// (?month=YYYY-MM, empty means all time).
func (h *Handler) GetMonthSummary(c *fiber.Ctx) error {
	userUID, _ := c.Locals("user_id").(string)
	if strings.TrimSpace(userUID) == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	sum, err := h.Cache.MonthSummary(c.UserContext(), userUID, strings.TrimSpace(c.Query("month")))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to compute summary")
	}
	return c.JSON(sum)
}

// GetCategoryBreakdown sums expenses per category for one month.
func (h *Handler) GetCategoryBreakdown(c *fiber.Ctx) error {
	userUID, _ := c.Locals("user_id").(string)
	if strings.TrimSpace(userUID) == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	breakdown, err := h.Cache.CategoryBreakdown(c.UserContext(), userUID, strings.TrimSpace(c.Query("month")))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to compute breakdown")
	}
	return c.JSON(breakdown)
}
