package admin

import (
	"crypto/subtle"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireAdminAPIKey guards the console routes with the shared
// ADMIN_API_KEY. The console carries no user session; every request must
// present the key in X-Admin-Key. Keys are compared in constant time.
func RequireAdminAPIKey() fiber.Handler {
	key := strings.TrimSpace(os.Getenv("ADMIN_API_KEY"))
	// An unset key fails closed rather than leaving the console open.
	if key == "" {
		return func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusInternalServerError, "ADMIN_API_KEY not set")
		}
	}

	return func(c *fiber.Ctx) error {
		got := strings.TrimSpace(c.Get("X-Admin-Key"))
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid admin key")
		}
		return c.Next()
	}
}
