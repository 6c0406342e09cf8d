package auth

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MustJWTSecret loads JWT_SECRET or exits. Tokens are worthless without it,
// so there is no default.
func MustJWTSecret() []byte {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	return []byte(secret)
}

// GenerateToken signs a 24h HS256 token carrying the user's public id.
func GenerateToken(userUID string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userUID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// Middleware validates the Bearer token and puts the user's public id in
// c.Locals("user_id"). Suspended users are rejected here so every protected
// route gets the check for free.
func Middleware(pool *pgxpool.Pool) fiber.Handler {
	secret := MustJWTSecret()

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing token")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		userUID, ok := claims["user_id"].(string)
		if !ok || strings.TrimSpace(userUID) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		if _, err := uuid.Parse(userUID); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		var status string
		err = pool.QueryRow(c.UserContext(),
			`SELECT status FROM users WHERE public_id = $1::uuid`, userUID).Scan(&status)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		if status != "ACTIVE" {
			return fiber.NewError(fiber.StatusForbidden, "account suspended")
		}

		c.Locals("user_id", userUID)

		// Update last_seen_at best-effort, never blocking the request.
		go func(uid string) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, _ = pool.Exec(ctx, `UPDATE users SET last_seen_at = NOW() WHERE public_id = $1::uuid`, uid)
		}(userUID)

		return c.Next()
	}
}
