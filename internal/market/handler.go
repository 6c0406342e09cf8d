package market

import (
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// ListAssets returns the tradable market assets, optionally by type.
func (h *Handler) ListAssets(c *fiber.Ctx) error {
	assets, err := h.Svc.Assets(c.UserContext(), c.Query("type"), true)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list assets")
	}
	return c.JSON(assets)
}

// GetAsset returns one asset by symbol.
func (h *Handler) GetAsset(c *fiber.Ctx) error {
	a, err := h.Svc.AssetBySymbol(c.UserContext(), c.Params("symbol"))
	if err == ErrAssetNotFound {
		return fiber.NewError(fiber.StatusNotFound, "asset not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load asset")
	}
	return c.JSON(a)
}

// GetPriceHistory returns the recorded price points for an asset.
func (h *Handler) GetPriceHistory(c *fiber.Ctx) error {
	a, err := h.Svc.AssetBySymbol(c.UserContext(), c.Params("symbol"))
	if err == ErrAssetNotFound {
		return fiber.NewError(fiber.StatusNotFound, "asset not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load asset")
	}

	points, err := h.Svc.PriceHistory(c.UserContext(), a.ID, c.QueryInt("days"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load price history")
	}
	return c.JSON(fiber.Map{"symbol": a.Symbol, "points": points})
}
