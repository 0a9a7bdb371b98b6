package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	accountdomain "flashpay/backend/internal/account/domain"
	accountrepo "flashpay/backend/internal/account/repository"
	"flashpay/backend/internal/db"
	"flashpay/backend/internal/ledger/domain"
)

// PostgresRepository persists transfers in Postgres via pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a ledger repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ApplyTransfer runs both balance updates and the ledger insert in a single
// transaction. Accounts are updated in ID order so two transfers touching the
// same pair cannot deadlock each other. Each update is compare-and-save on the
// version column; zero rows affected aborts the transaction with ErrConflict.
func (r *PostgresRepository) ApplyTransfer(ctx context.Context, sender, receiver *accountdomain.Account, t *domain.Transfer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return db.WrapErr(err)
	}
	defer tx.Rollback(ctx)

	first, second := sender, receiver
	if second.ID < first.ID {
		first, second = second, first
	}
	for _, a := range []*accountdomain.Account{first, second} {
		tag, err := tx.Exec(ctx, `
			UPDATE accounts
			SET balance = $2, version = version + 1, updated_at = now()
			WHERE id = $1 AND version = $3`,
			a.ID, a.Balance, a.Version,
		)
		if err != nil {
			return db.WrapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return accountrepo.ErrConflict
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transfers (id, sender_id, receiver_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.SenderID, t.ReceiverID, t.Amount, t.CreatedAt,
	)
	if err != nil {
		return db.WrapErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return db.WrapErr(err)
	}
	sender.Version++
	receiver.Version++
	return nil
}

// GetByID returns the transfer for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	var t domain.Transfer
	err := r.pool.QueryRow(ctx, `
		SELECT id, sender_id, receiver_id, amount, created_at
		FROM transfers WHERE id = $1`, id,
	).Scan(&t.ID, &t.SenderID, &t.ReceiverID, &t.Amount, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.WrapErr(err)
	}
	return &t, nil
}

// ListByAccount returns transfers sent or received by the account, newest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Transfer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, amount, created_at
		FROM transfers
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, accountID, limit,
	)
	if err != nil {
		return nil, db.WrapErr(err)
	}
	defer rows.Close()

	var out []*domain.Transfer
	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(&t.ID, &t.SenderID, &t.ReceiverID, &t.Amount, &t.CreatedAt); err != nil {
			return nil, db.WrapErr(err)
		}
		out = append(out, &t)
	}
	return out, db.WrapErr(rows.Err())
}
