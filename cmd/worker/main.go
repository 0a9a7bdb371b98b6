// Worker runs the refresh token maintenance schedules: an hourly sweep of
// expired tokens, a daily purge of revoked tokens past retention, and a
// periodic stats log. Cron specs are configurable via TOKEN_SWEEP_SPEC.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"flashpay/backend/internal/config"
	"flashpay/backend/internal/db"
	"flashpay/backend/internal/token"
	tokenrepo "flashpay/backend/internal/token/repository"
)

const (
	revokedSweepSpec = "0 0 * * *"
	statsSpec        = "0 */6 * * *"
	sweepTimeout     = 2 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	cleaner := token.NewCleaner(tokenrepo.NewPostgresRepository(pool), cfg.RevokedRetention())

	c := cron.New()
	if _, err := c.AddFunc(cfg.TokenSweepSpec, func() {
		sweepCtx, sweepCancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer sweepCancel()
		if _, err := cleaner.SweepExpired(sweepCtx); err != nil {
			log.Printf("worker: expired sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("worker: bad TOKEN_SWEEP_SPEC %q: %v", cfg.TokenSweepSpec, err)
	}
	if _, err := c.AddFunc(revokedSweepSpec, func() {
		sweepCtx, sweepCancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer sweepCancel()
		if _, err := cleaner.SweepRevoked(sweepCtx); err != nil {
			log.Printf("worker: revoked sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("worker: revoked sweep schedule: %v", err)
	}
	if _, err := c.AddFunc(statsSpec, func() {
		statsCtx, statsCancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer statsCancel()
		cleaner.LogStats(statsCtx)
	}); err != nil {
		log.Fatalf("worker: stats schedule: %v", err)
	}

	log.Printf("worker: token sweeps scheduled (expired %q, revoked %q)", cfg.TokenSweepSpec, revokedSweepSpec)
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("worker: shutting down...")
	<-c.Stop().Done()
	log.Println("worker: stopped")
}
