// Package handler implements the HTTP API surface: JSON request decoding,
// service invocation and error translation.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	accountservice "flashpay/backend/internal/account/service"
	authservice "flashpay/backend/internal/auth/service"
	"flashpay/backend/internal/db"
	ledgerservice "flashpay/backend/internal/ledger/service"
)

// storeTimeout bounds every store-facing request so a stalled database
// surfaces as 503 instead of a hung connection.
const storeTimeout = 5 * time.Second

type errorBody struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorBody{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// serviceError maps domain sentinels onto stable HTTP error codes. Anything
// unrecognized is a 500 and gets logged; client mistakes do not.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledgerservice.ErrAccountNotFound),
		errors.Is(err, accountservice.ErrNotFound):
		return writeError(c, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, ledgerservice.ErrTransferNotFound):
		return writeError(c, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "transaction not found")
	case errors.Is(err, ledgerservice.ErrSelfTransfer):
		return writeError(c, http.StatusBadRequest, "INVALID_OPERATION", "sender and receiver must differ")
	case errors.Is(err, ledgerservice.ErrShopkeeperSender):
		return writeError(c, http.StatusForbidden, "FORBIDDEN_OPERATION", "shopkeeper accounts cannot send transfers")
	case errors.Is(err, ledgerservice.ErrInvalidAmount):
		return writeError(c, http.StatusBadRequest, "INVALID_AMOUNT", "transfer amount must be a positive value with at most two decimal places")
	case errors.Is(err, ledgerservice.ErrInsufficientBalance):
		return writeError(c, http.StatusBadRequest, "INSUFFICIENT_BALANCE", "insufficient balance")
	case errors.Is(err, ledgerservice.ErrConcurrentUpdate):
		return writeError(c, http.StatusConflict, "CONCURRENT_UPDATE_CONFLICT", "account was modified concurrently, retry the transfer")
	case errors.Is(err, accountservice.ErrDuplicateEmail),
		errors.Is(err, accountservice.ErrDuplicateDocument):
		return writeError(c, http.StatusConflict, "DUPLICATE_RESOURCE", "email or document already registered")
	case errors.Is(err, authservice.ErrInvalidCredentials):
		return writeError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, authservice.ErrInvalidRefreshToken):
		return writeError(c, http.StatusUnauthorized, "INVALID_TOKEN", "refresh token is invalid, expired or revoked")
	case errors.Is(err, db.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return writeError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "storage backend unavailable, retry later")
	default:
		slog.Error("unhandled request error", "path", c.Path(), "error", err)
		return writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), storeTimeout)
}
