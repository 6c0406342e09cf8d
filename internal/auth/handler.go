package auth

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dhyan-17/Finance-Tracker/internal/audit"
	"github.com/Dhyan-17/Finance-Tracker/internal/ledger"
)

type Handler struct {
	Pool   *pgxpool.Pool
	Ledger *ledger.Service
	secret []byte
}

func NewHandler(pool *pgxpool.Pool, l *ledger.Service) *Handler {
	return &Handler{Pool: pool, Ledger: l, secret: MustJWTSecret()}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Signup registers a user and opens their wallet. Every user has exactly
// one wallet from the moment the account exists.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var body signupRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if body.Email == "" || body.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password required")
	}
	if len(body.Password) < 8 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}

	ctx := userContext(c)

	var userUID string
	err = h.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING public_id::text`,
		body.Email, string(hashed), body.FullName,
	).Scan(&userUID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
	}

	if _, err := h.Ledger.CreateWallet(ctx, userUID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create wallet")
	}

	if err := audit.Write(ctx, h.Pool, audit.Entry{
		Action:     "auth.signup",
		EntityType: "user",
		EntityID:   &userUID,
		IP:         strPtr(c.IP()),
	}); err != nil {
		log.Printf("auth: audit signup: %v", err)
	}

	token, err := GenerateToken(userUID, h.secret)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
	}
	return c.Status(fiber.StatusCreated).JSON(authResponse{Token: token})
}

// Login checks credentials and issues a token. Suspended users cannot log in.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	var (
		userUID      string
		passwordHash string
		status       string
	)
	ctx := userContext(c)
	err := h.Pool.QueryRow(ctx, `
		SELECT public_id::text, password_hash, status
		FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(body.Email)),
	).Scan(&userUID, &passwordHash, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(body.Password)); err != nil {
		if aerr := audit.Write(ctx, h.Pool, audit.Entry{
			Action:     "auth.login_failed",
			EntityType: "user",
			EntityID:   &userUID,
			IP:         strPtr(c.IP()),
		}); aerr != nil {
			log.Printf("auth: audit failed login: %v", aerr)
		}
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if status != "ACTIVE" {
		return fiber.NewError(fiber.StatusForbidden, "account suspended")
	}

	if err := audit.Write(ctx, h.Pool, audit.Entry{
		Action:     "auth.login",
		EntityType: "user",
		EntityID:   &userUID,
		IP:         strPtr(c.IP()),
	}); err != nil {
		log.Printf("auth: audit login: %v", err)
	}

	token, err := GenerateToken(userUID, h.secret)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
	}
	return c.JSON(authResponse{Token: token})
}

// Me returns the authenticated user's profile and wallet balance.
func (h *Handler) Me(c *fiber.Ctx) error {
	uidVal, _ := c.Locals("user_id").(string)
	if strings.TrimSpace(uidVal) == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	ctx := userContext(c)
	var (
		email    string
		fullName *string
		role     string
	)
	err := h.Pool.QueryRow(ctx, `
		SELECT email, full_name, role FROM users WHERE public_id = $1::uuid`, uidVal,
	).Scan(&email, &fullName, &role)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	wallet, err := h.Ledger.WalletOf(ctx, uidVal)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not load wallet")
	}

	return c.JSON(fiber.Map{
		"id":             uidVal,
		"email":          email,
		"full_name":      fullName,
		"role":           role,
		"wallet_balance": wallet.Balance,
	})
}

func strPtr(s string) *string { return &s }

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
