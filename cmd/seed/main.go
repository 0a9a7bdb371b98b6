// seed inserts development sample accounts for local testing.
// Idempotent: skips inserts if the dev user (dev@flashpay.local) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	accountdomain "flashpay/backend/internal/account/domain"
	accountrepo "flashpay/backend/internal/account/repository"
	"flashpay/backend/internal/config"
	"flashpay/backend/internal/db"
	"flashpay/backend/internal/security"
)

const (
	devUserEmail   = "dev@flashpay.local"
	devShopEmail   = "shop@flashpay.local"
	devPassword    = "password123"
	devUserID      = "dev-user-001"
	devShopID      = "dev-shop-001"
	devUserDoc     = "11122233344"
	devShopDoc     = "55566677788"
	devUserBalance = "100.00"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	accounts := accountrepo.NewPostgresRepository(pool)
	seedCtx := context.Background()

	existing, err := accounts.GetByEmail(seedCtx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@flashpay.local exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	balance, err := decimal.NewFromString(devUserBalance)
	if err != nil {
		log.Fatalf("parse balance: %v", err)
	}

	if err := accounts.Create(seedCtx, &accountdomain.Account{
		ID:           devUserID,
		FirstName:    "Dev",
		LastName:     "User",
		Document:     devUserDoc,
		Email:        devUserEmail,
		PasswordHash: passwordHash,
		Balance:      balance,
		Role:         accountdomain.RoleOrdinary,
		Version:      1,
		CreatedAt:    now,
	}); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	if err := accounts.Create(seedCtx, &accountdomain.Account{
		ID:           devShopID,
		FirstName:    "Dev",
		LastName:     "Shop",
		Document:     devShopDoc,
		Email:        devShopEmail,
		PasswordHash: passwordHash,
		Balance:      decimal.Zero,
		Role:         accountdomain.RoleShopkeeper,
		Version:      1,
		CreatedAt:    now,
	}); err != nil {
		log.Fatalf("create dev shopkeeper: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Ordinary login: %s / %s (balance %s)\n", devUserEmail, devPassword, devUserBalance)
	fmt.Printf("Shopkeeper login: %s / %s\n", devShopEmail, devPassword)
}
