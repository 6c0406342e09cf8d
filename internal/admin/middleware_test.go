package admin

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guardedApp() *fiber.App {
	app := fiber.New()
	app.Get("/guarded", RequireAdminAPIKey(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestRequireAdminAPIKey(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "console-key-1")
	app := guardedApp()

	req := httptest.NewRequest("GET", "/guarded", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "missing key")

	req = httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("X-Admin-Key", "wrong-key")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "wrong key")

	req = httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("X-Admin-Key", "console-key-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdminAPIKeyUnsetFailsClosed(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "")
	app := guardedApp()

	req := httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("X-Admin-Key", "anything")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
