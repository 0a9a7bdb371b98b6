package repository

import (
	"context"
	"time"

	"flashpay/backend/internal/token/domain"
)

// Repository defines persistence for refresh tokens. GetByTokenHash returns
// (nil, nil) when no record matches; errors are reserved for store failures.
type Repository interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	ListByAccount(ctx context.Context, accountID string) ([]*domain.RefreshToken, error)
	// Revoke marks the record with the given hash revoked. Idempotent: missing
	// or already-revoked records are not an error.
	Revoke(ctx context.Context, tokenHash string) error
	// CountUsable returns the number of records that are neither revoked nor
	// expired at now. Used for sweep statistics.
	CountUsable(ctx context.Context, now time.Time) (int64, error)
	// DeleteExpiredBefore deletes records whose expiry is before cutoff and
	// returns how many were removed.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// DeleteRevokedBefore deletes revoked records whose revocation happened
	// before cutoff and returns how many were removed.
	DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
