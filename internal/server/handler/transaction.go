package handler

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	ledgerdomain "flashpay/backend/internal/ledger/domain"
	ledgerservice "flashpay/backend/internal/ledger/service"
	"flashpay/backend/internal/server/middleware"
)

// TransactionHandler serves transfer creation and history.
type TransactionHandler struct {
	transfers *ledgerservice.TransferService
}

func NewTransactionHandler(transfers *ledgerservice.TransferService) *TransactionHandler {
	return &TransactionHandler{transfers: transfers}
}

type createTransactionRequest struct {
	SenderID   string          `json:"sender_id"`
	ReceiverID string          `json:"receiver_id"`
	Value      decimal.Decimal `json:"value"`
}

type transactionResponse struct {
	ID         string          `json:"id"`
	SenderID   string          `json:"sender_id"`
	ReceiverID string          `json:"receiver_id"`
	Value      decimal.Decimal `json:"value"`
	Timestamp  time.Time       `json:"timestamp"`
}

func toTransactionResponse(t *ledgerdomain.Transfer) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		SenderID:   t.SenderID,
		ReceiverID: t.ReceiverID,
		Value:      t.Amount,
		Timestamp:  t.CreatedAt,
	}
}

// Create moves money from the authenticated caller to the receiver. A
// sender_id in the body is accepted only when it matches the caller.
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "INVALID_TOKEN", "missing or invalid authorization")
	}
	var req createTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
	}
	if req.ReceiverID == "" {
		return writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "receiver_id is required")
	}
	if req.SenderID != "" && req.SenderID != principal.AccountID {
		return writeError(c, http.StatusForbidden, "FORBIDDEN_OPERATION", "cannot send from another user's account")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	transfer, err := h.transfers.Transfer(ctx, principal.AccountID, req.ReceiverID, req.Value)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toTransactionResponse(transfer))
}

// Get returns a single transfer. Only its participants can fetch it.
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "INVALID_TOKEN", "missing or invalid authorization")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	transfer, err := h.transfers.Get(ctx, c.Params("id"), principal.AccountID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(toTransactionResponse(transfer))
}

// List returns the caller's transfer history, newest first.
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "INVALID_TOKEN", "missing or invalid authorization")
	}
	limit := c.QueryInt("limit", 50)
	ctx, cancel := requestContext(c)
	defer cancel()
	transfers, err := h.transfers.History(ctx, principal.AccountID, limit)
	if err != nil {
		return serviceError(c, err)
	}
	out := make([]transactionResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, toTransactionResponse(t))
	}
	return c.JSON(out)
}
