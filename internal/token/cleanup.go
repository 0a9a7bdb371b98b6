// Package token holds the refresh token record and the periodic sweep that
// purges expired and revoked records from the store.
package token

import (
	"context"
	"log/slog"
	"time"

	"flashpay/backend/internal/metrics"
	"flashpay/backend/internal/token/repository"
)

// Cleaner deletes stale refresh token records. Schedule failures are logged
// and never stop subsequent runs.
type Cleaner struct {
	tokens           repository.Repository
	revokedRetention time.Duration
}

// NewCleaner returns a Cleaner. revokedRetention is how long revoked records
// are kept before deletion.
func NewCleaner(tokens repository.Repository, revokedRetention time.Duration) *Cleaner {
	return &Cleaner{tokens: tokens, revokedRetention: revokedRetention}
}

// SweepExpired deletes every record whose expiry is in the past.
func (c *Cleaner) SweepExpired(ctx context.Context) (int64, error) {
	n, err := c.tokens.DeleteExpiredBefore(ctx, time.Now().UTC())
	if err != nil {
		slog.Error("expired token sweep failed", "error", err)
		return 0, err
	}
	metrics.TokensSwept.WithLabelValues("expired").Add(float64(n))
	slog.Info("expired token sweep finished", "deleted", n)
	return n, nil
}

// SweepRevoked deletes revoked records older than the retention window.
func (c *Cleaner) SweepRevoked(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-c.revokedRetention)
	n, err := c.tokens.DeleteRevokedBefore(ctx, cutoff)
	if err != nil {
		slog.Error("revoked token sweep failed", "error", err)
		return 0, err
	}
	metrics.TokensSwept.WithLabelValues("revoked").Add(float64(n))
	slog.Info("revoked token sweep finished", "deleted", n, "cutoff", cutoff)
	return n, nil
}

// LogStats logs the number of currently usable refresh tokens.
func (c *Cleaner) LogStats(ctx context.Context) {
	n, err := c.tokens.CountUsable(ctx, time.Now().UTC())
	if err != nil {
		slog.Error("token stats query failed", "error", err)
		return
	}
	slog.Info("refresh token stats", "usable", n)
}
