package handler

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	accountdomain "flashpay/backend/internal/account/domain"
	accountservice "flashpay/backend/internal/account/service"
)

// AccountHandler serves account lookup and administrative creation.
type AccountHandler struct {
	accounts *accountservice.Service
}

func NewAccountHandler(accounts *accountservice.Service) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type createAccountRequest struct {
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Document  string           `json:"document"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	UserType  string           `json:"user_type"`
	Balance   *decimal.Decimal `json:"balance"`
}

type accountResponse struct {
	ID        string          `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Document  string          `json:"document"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	UserType  string          `json:"user_type"`
	CreatedAt time.Time       `json:"created_at"`
}

func toAccountResponse(a *accountdomain.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Document:  a.Document,
		Email:     a.Email,
		Balance:   a.Balance,
		UserType:  string(a.Role),
		CreatedAt: a.CreatedAt,
	}
}

// List returns every account. The password hash never leaves the server.
func (h *AccountHandler) List(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	accounts, err := h.accounts.List(ctx)
	if err != nil {
		return serviceError(c, err)
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return c.JSON(out)
}

// Get returns a single account by id.
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	account, err := h.accounts.GetByID(ctx, c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(toAccountResponse(account))
}

// Create registers an account without opening a session.
func (h *AccountHandler) Create(c *fiber.Ctx) error {
	var req createAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	account, err := h.accounts.Create(ctx, accountservice.CreateInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Document:       req.Document,
		Email:          req.Email,
		Password:       req.Password,
		Role:           accountdomain.Role(req.UserType),
		InitialBalance: req.Balance,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toAccountResponse(account))
}
