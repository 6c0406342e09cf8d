package ledger

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Validation errors are rejected before any write; ErrBusy is safe to retry
// with no side effect from the failed attempt.
var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrAmountTooSmall    = errors.New("amount too small at the current price")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInsufficientUnits = errors.New("insufficient units")
	ErrAccountClosed     = errors.New("account is closed")
	ErrAssetInactive     = errors.New("asset is not active")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrBusy              = errors.New("store busy, retry")
	ErrNotFound          = errors.New("not found")
)

// mapPgError folds storage-engine failures into the ledger taxonomy so raw
// database error text never reaches a caller.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40P01", "40001": // lock not available, deadlock, serialization
			return ErrBusy
		case "23505":
			if pgErr.ConstraintName == "transactions_idempotency_key_key" {
				return ErrDuplicateRequest
			}
		}
	}
	return err
}

// HTTPStatus maps a ledger error to the status its handler should return.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrAmountTooSmall),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInsufficientUnits),
		errors.Is(err, ErrAccountClosed),
		errors.Is(err, ErrAssetInactive):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrDuplicateRequest):
		return fiber.StatusConflict
	case errors.Is(err, ErrBusy):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// FiberError translates a ledger error into a short human-readable response.
func FiberError(err error) error {
	status := HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		return fiber.NewError(status, "operation failed")
	}
	return fiber.NewError(status, err.Error())
}
