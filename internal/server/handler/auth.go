package handler

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	accountdomain "flashpay/backend/internal/account/domain"
	accountservice "flashpay/backend/internal/account/service"
	authservice "flashpay/backend/internal/auth/service"
	"flashpay/backend/internal/server/middleware"
)

// AuthHandler serves registration, login and the refresh token lifecycle.
type AuthHandler struct {
	auth     *authservice.AuthService
	accounts *accountservice.Service
}

func NewAuthHandler(auth *authservice.AuthService, accounts *accountservice.Service) *AuthHandler {
	return &AuthHandler{auth: auth, accounts: accounts}
}

type registerRequest struct {
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Document  string           `json:"document"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	UserType  string           `json:"user_type"`
	Balance   *decimal.Decimal `json:"balance"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	Token            string `json:"token"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	UserType         string `json:"user_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in,omitempty"`
}

func toAuthResponse(r *authservice.AuthResult) authResponse {
	resp := authResponse{
		Token:     r.AccessToken,
		TokenType: "Bearer",
		UserID:    r.Account.ID,
		Email:     r.Account.Email,
		FirstName: r.Account.FirstName,
		LastName:  r.Account.LastName,
		UserType:  string(r.Account.Role),
		ExpiresIn: int64(time.Until(r.AccessExpiresAt).Seconds()),
	}
	if r.RefreshToken != "" {
		resp.RefreshToken = r.RefreshToken
		resp.RefreshExpiresIn = int64(time.Until(r.RefreshExpiresAt).Seconds())
	}
	return resp
}

// Register creates an account and opens a session in one call.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
	}
	in := accountservice.CreateInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Document:       req.Document,
		Email:          req.Email,
		Password:       req.Password,
		Role:           accountdomain.Role(req.UserType),
		InitialBalance: req.Balance,
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	result, err := h.auth.Register(ctx, in, c.Get("User-Agent"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toAuthResponse(result))
}

// Login exchanges credentials for an access and refresh token pair.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	result, err := h.auth.Login(ctx, req.Email, req.Password, c.Get("User-Agent"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(toAuthResponse(result))
}

// Refresh issues a new access token against a still-usable refresh token.
// The refresh token itself is not rotated.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "refresh_token is required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	result, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(toAuthResponse(result))
}

// Logout revokes the presented refresh token. Revoking an already revoked or
// unknown token is not an error.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.auth.Logout(ctx, req.RefreshToken); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

type sessionResponse struct {
	ID         string     `json:"id"`
	DeviceInfo string     `json:"device_info,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Revoked    bool       `json:"revoked"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Sessions lists the caller's refresh token sessions. Token hashes never
// leave the server.
func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "INVALID_TOKEN", "missing or invalid authorization")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	records, err := h.auth.Sessions(ctx, principal.AccountID)
	if err != nil {
		return serviceError(c, err)
	}
	out := make([]sessionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, sessionResponse{
			ID:         r.ID,
			DeviceInfo: r.DeviceInfo,
			CreatedAt:  r.CreatedAt,
			ExpiresAt:  r.ExpiresAt,
			Revoked:    r.Revoked,
			RevokedAt:  r.RevokedAt,
		})
	}
	return c.JSON(out)
}

// Me returns the authenticated caller's account.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "INVALID_TOKEN", "missing or invalid authorization")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	account, err := h.accounts.GetByID(ctx, principal.AccountID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(toAccountResponse(account))
}
