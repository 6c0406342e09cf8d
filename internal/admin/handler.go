package admin

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dhyan-17/Finance-Tracker/internal/audit"
	"github.com/Dhyan-17/Finance-Tracker/internal/fraud"
	"github.com/Dhyan-17/Finance-Tracker/internal/market"
)

type Handler struct {
	Pool   *pgxpool.Pool
	Fraud  *fraud.Service
	Market *market.Service
}

func NewHandler(pool *pgxpool.Pool, fraudSvc *fraud.Service, marketSvc *market.Service) *Handler {
	return &Handler{Pool: pool, Fraud: fraudSvc, Market: marketSvc}
}

type latestUser struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

type OverviewResponse struct {
	UsersTotal        int64        `json:"users_total"`
	AccountsTotal     int64        `json:"accounts_total"`
	TransactionsTotal int64        `json:"transactions_total"`
	MoneyInSystem     int64        `json:"money_in_system"`
	PendingFlags      int64        `json:"pending_flags"`
	ActiveAssets      int64        `json:"active_assets"`
	LatestUsers       []latestUser `json:"latest_users"`
}

// Overview returns headline platform stats for the admin console.
func (h *Handler) Overview(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var resp OverviewResponse

	err := h.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM transactions),
			(SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE status = 'ACTIVE'),
			(SELECT COUNT(*) FROM fraud_flags WHERE status = 'PENDING'),
			(SELECT COUNT(*) FROM market_assets WHERE is_active)`,
	).Scan(&resp.UsersTotal, &resp.AccountsTotal, &resp.TransactionsTotal,
		&resp.MoneyInSystem, &resp.PendingFlags, &resp.ActiveAssets)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed overview")
	}

	rows, err := h.Pool.Query(ctx, `
		SELECT public_id::text, email, full_name, status, created_at::text
		FROM users
		ORDER BY created_at DESC
		LIMIT 20`)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed latest_users")
	}
	defer rows.Close()

	for rows.Next() {
		var u latestUser
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Status, &u.CreatedAt); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed latest_users")
		}
		resp.LatestUsers = append(resp.LatestUsers, u)
	}

	return c.JSON(resp)
}

// ListUsers pages through registered users.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit")
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := h.Pool.Query(c.UserContext(), `
		SELECT u.public_id::text, u.email, u.full_name, u.status, u.created_at::text,
		       COALESCE((SELECT SUM(a.balance) FROM accounts a WHERE a.user_id = u.id AND a.status = 'ACTIVE'), 0)
		FROM users u
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2`, limit, c.QueryInt("offset"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list users")
	}
	defer rows.Close()

	type userRow struct {
		latestUser
		TotalBalance int64 `json:"total_balance"`
	}
	out := make([]userRow, 0, limit)
	for rows.Next() {
		var u userRow
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Status, &u.CreatedAt, &u.TotalBalance); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list users")
		}
		out = append(out, u)
	}
	return c.JSON(out)
}

// SetUserStatus suspends or reactivates a user. Suspension blocks login and
// every authenticated call; it does not touch balances.
func (h *Handler) SetUserStatus(c *fiber.Ctx) error {
	var body struct {
		Status string `json:"status"` // ACTIVE | SUSPENDED
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if status != "ACTIVE" && status != "SUSPENDED" {
		return fiber.NewError(fiber.StatusBadRequest, "status must be ACTIVE or SUSPENDED")
	}

	ctx := c.UserContext()
	userUID := c.Params("id")
	tag, err := h.Pool.Exec(ctx, `
		UPDATE users SET status = $2 WHERE public_id = $1::uuid AND role <> 'ADMIN'`,
		userUID, status)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	_ = audit.Write(ctx, h.Pool, audit.Entry{
		Action:     "admin.user." + strings.ToLower(status),
		EntityType: "user",
		EntityID:   &userUID,
	})
	return c.JSON(fiber.Map{"ok": true})
}

// ListFlags returns fraud flags, optionally filtered by status.
func (h *Handler) ListFlags(c *fiber.Ctx) error {
	flags, err := h.Fraud.Flags(c.UserContext(), strings.ToUpper(c.Query("status")), c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list flags")
	}
	return c.JSON(flags)
}

// ReviewFlag moves a fraud flag to REVIEWED, CLEARED or CONFIRMED.
func (h *Handler) ReviewFlag(c *fiber.Ctx) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	ctx := c.UserContext()
	var reviewerID int64
	if err := h.Pool.QueryRow(ctx, `SELECT id FROM users WHERE role = 'ADMIN' ORDER BY id LIMIT 1`).Scan(&reviewerID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "no admin user configured")
	}

	flagUID := c.Params("id")
	err := h.Fraud.Review(ctx, flagUID, strings.ToUpper(strings.TrimSpace(body.Status)), reviewerID)
	if errors.Is(err, fraud.ErrFlagClosed) {
		return fiber.NewError(fiber.StatusConflict, "flag already closed")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	_ = audit.Write(ctx, h.Pool, audit.Entry{
		Action:     "admin.fraud.review",
		EntityType: "fraud_flag",
		EntityID:   &flagUID,
	})
	return c.JSON(fiber.Map{"ok": true})
}

// ListRules returns all fraud rules.
func (h *Handler) ListRules(c *fiber.Ctx) error {
	rules, err := h.Fraud.Rules(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list rules")
	}
	return c.JSON(rules)
}

// CreateRule adds a fraud heuristic.
func (h *Handler) CreateRule(c *fiber.Ctx) error {
	var r fraud.Rule
	if err := c.BodyParser(&r); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
	if r.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "rule_name required")
	}
	switch r.Type {
	case fraud.TypeAmount, fraud.TypeFrequency, fraud.TypeVelocity:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "rule_type must be AMOUNT, FREQUENCY or VELOCITY")
	}
	if r.Comparator == "" {
		r.Comparator = fraud.CmpGTE
	}
	if r.Severity == "" {
		r.Severity = fraud.SeverityMedium
	}
	id, err := h.Fraud.CreateRule(c.UserContext(), r)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create rule")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// SetRuleActive toggles a fraud rule.
func (h *Handler) SetRuleActive(c *fiber.Ctx) error {
	var body struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.Fraud.SetRuleActive(c.UserContext(), int64(id), body.Active); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update rule")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// CreateAsset registers a tradable asset.
func (h *Handler) CreateAsset(c *fiber.Ctx) error {
	var a market.Asset
	if err := c.BodyParser(&a); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	a.Symbol = strings.ToUpper(strings.TrimSpace(a.Symbol))
	if a.Symbol == "" || strings.TrimSpace(a.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "symbol and name required")
	}

	id, err := h.Market.CreateAsset(c.UserContext(), a)
	if errors.Is(err, market.ErrInvalidPrice) {
		return fiber.NewError(fiber.StatusBadRequest, "price must be greater than zero")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusConflict, "could not create asset")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// UpdateAssetPrice sets a new price and revalues all holdings of the asset.
func (h *Handler) UpdateAssetPrice(c *fiber.Ctx) error {
	var body struct {
		Price int64 `json:"price"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	err = h.Market.UpdatePrice(c.UserContext(), int64(id), body.Price)
	switch {
	case errors.Is(err, market.ErrAssetNotFound):
		return fiber.NewError(fiber.StatusNotFound, "asset not found")
	case errors.Is(err, market.ErrInvalidPrice):
		return fiber.NewError(fiber.StatusBadRequest, "price must be greater than zero")
	case err != nil:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update price")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// SimulateTick moves every active asset one random-walk step.
func (h *Handler) SimulateTick(c *fiber.Ctx) error {
	moved, err := h.Market.SimulateTick(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "simulation failed")
	}
	return c.JSON(fiber.Map{"moved": len(moved), "assets": moved})
}

// SetAssetActive opens or halts trading on an asset.
func (h *Handler) SetAssetActive(c *fiber.Ctx) error {
	var body struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.Market.SetActive(c.UserContext(), int64(id), body.Active); err != nil {
		if errors.Is(err, market.ErrAssetNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "asset not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update asset")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ListAuditLogs returns the latest audit records, optionally filtered by
// action prefix.
func (h *Handler) ListAuditLogs(c *fiber.Ctx) error {
	records, err := audit.Recent(c.UserContext(), h.Pool, c.Query("action"), c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list audit logs")
	}
	return c.JSON(records)
}
