package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flashpay/backend/internal/db"
	"flashpay/backend/internal/token/domain"
)

const tokenColumns = `id, account_id, token_hash, expires_at, revoked, revoked_at, device_info, created_at`

// PostgresRepository persists refresh tokens in Postgres via pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a token repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists the refresh token record. The record must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, account_id, token_hash, expires_at, revoked, revoked_at, device_info, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.AccountID, t.TokenHash, t.ExpiresAt, t.Revoked, t.RevokedAt, nullableText(t.DeviceInfo), t.CreatedAt,
	)
	return db.WrapErr(err)
}

// GetByTokenHash returns the record for the given token hash, or nil if not found.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	var deviceInfo *string
	err := r.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash,
	).Scan(&t.ID, &t.AccountID, &t.TokenHash, &t.ExpiresAt, &t.Revoked, &t.RevokedAt, &deviceInfo, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.WrapErr(err)
	}
	if deviceInfo != nil {
		t.DeviceInfo = *deviceInfo
	}
	return &t, nil
}

// ListByAccount returns all refresh token records for the account, newest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.RefreshToken, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE account_id = $1 ORDER BY created_at DESC`, accountID,
	)
	if err != nil {
		return nil, db.WrapErr(err)
	}
	defer rows.Close()

	var out []*domain.RefreshToken
	for rows.Next() {
		var t domain.RefreshToken
		var deviceInfo *string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.TokenHash, &t.ExpiresAt, &t.Revoked, &t.RevokedAt, &deviceInfo, &t.CreatedAt); err != nil {
			return nil, db.WrapErr(err)
		}
		if deviceInfo != nil {
			t.DeviceInfo = *deviceInfo
		}
		out = append(out, &t)
	}
	return out, db.WrapErr(rows.Err())
}

// Revoke marks the record with the given token hash revoked. Zero rows
// affected is not an error: revoking a missing or already-revoked token is a
// no-op by contract.
func (r *PostgresRepository) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2
		WHERE token_hash = $1 AND NOT revoked`,
		tokenHash, time.Now().UTC(),
	)
	return db.WrapErr(err)
}

// CountUsable returns how many records are neither revoked nor expired at now.
func (r *PostgresRepository) CountUsable(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM refresh_tokens WHERE NOT revoked AND expires_at > $1`, now,
	).Scan(&n)
	return n, db.WrapErr(err)
}

// DeleteExpiredBefore deletes records whose expiry is before cutoff.
func (r *PostgresRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, db.WrapErr(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteRevokedBefore deletes revoked records whose revocation happened before cutoff.
func (r *PostgresRepository) DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE revoked AND revoked_at IS NOT NULL AND revoked_at < $1`, cutoff,
	)
	if err != nil {
		return 0, db.WrapErr(err)
	}
	return tag.RowsAffected(), nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
