package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountrepo "flashpay/backend/internal/account/repository"
	accountservice "flashpay/backend/internal/account/service"
	authservice "flashpay/backend/internal/auth/service"
	"flashpay/backend/internal/config"
	"flashpay/backend/internal/db"
	"flashpay/backend/internal/events"
	ledgerrepo "flashpay/backend/internal/ledger/repository"
	ledgerservice "flashpay/backend/internal/ledger/service"
	"flashpay/backend/internal/metrics"
	"flashpay/backend/internal/security"
	"flashpay/backend/internal/server"
	tokenrepo "flashpay/backend/internal/token/repository"
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

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("JWT_PRIVATE_KEY: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("JWT_PUBLIC_KEY: %v", err)
	}
	provider := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	accounts := accountrepo.NewPostgresRepository(pool)
	ledger := ledgerrepo.NewPostgresRepository(pool)
	tokens := tokenrepo.NewPostgresRepository(pool)

	var publisher ledgerservice.Publisher
	if producer := events.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.TransferEventsTopic); producer != nil {
		defer producer.Close()
		publisher = producer
		log.Printf("transfer events enabled on topic %s", cfg.TransferEventsTopic)
	}

	accountSvc := accountservice.NewService(accounts, hasher)
	transferSvc := ledgerservice.NewTransferService(accounts, ledger, publisher)
	authSvc := authservice.NewAuthService(accountSvc, accounts, tokens, hasher, provider)

	app := server.New(server.Deps{
		Accounts:  accountSvc,
		Transfers: transferSvc,
		Auth:      authSvc,
		Tokens:    provider,
		Pool:      pool,
	})

	if cfg.MetricsAddr != "" {
		go func() {
			log.Printf("metrics listening on %s", cfg.MetricsAddr)
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
