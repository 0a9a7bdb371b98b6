// Package server assembles the HTTP application: routes, middleware and the
// health endpoint.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	accountservice "flashpay/backend/internal/account/service"
	authservice "flashpay/backend/internal/auth/service"
	ledgerservice "flashpay/backend/internal/ledger/service"
	"flashpay/backend/internal/security"
	"flashpay/backend/internal/server/handler"
	"flashpay/backend/internal/server/middleware"
)

// Deps carries everything the HTTP layer needs. Pool may be nil in tests;
// the health endpoint then reports ok without a database ping.
type Deps struct {
	Accounts  *accountservice.Service
	Transfers *ledgerservice.TransferService
	Auth      *authservice.AuthService
	Tokens    *security.TokenProvider
	Pool      *pgxpool.Pool
}

// New builds the fiber application with all routes registered.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "flashpay",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})

	authHandler := handler.NewAuthHandler(deps.Auth, deps.Accounts)
	accountHandler := handler.NewAccountHandler(deps.Accounts)
	transactionHandler := handler.NewTransactionHandler(deps.Transfers)
	requireAuth := middleware.RequireAuth(deps.Tokens)

	app.Get("/health", healthHandler(deps.Pool))

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Get("/sessions", requireAuth, authHandler.Sessions)

	users := api.Group("/users", requireAuth)
	users.Get("/", accountHandler.List)
	users.Post("/", accountHandler.Create)
	users.Get("/:id", accountHandler.Get)

	transactions := api.Group("/transactions", requireAuth)
	transactions.Post("/", transactionHandler.Create)
	transactions.Get("/", transactionHandler.List)
	transactions.Get("/:id", transactionHandler.Get)

	return app
}

func healthHandler(pool *pgxpool.Pool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "ok"
		code := http.StatusOK
		if pool != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status":    status,
			"timestamp": time.Now().UTC(),
		})
	}
}
