package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flashpay/backend/internal/account/domain"
	"flashpay/backend/internal/db"
)

const accountColumns = `id, first_name, last_name, document, email, password_hash, balance, role, version, created_at`

// PostgresRepository persists accounts in Postgres via pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns an account repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByID returns the account for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getBy(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByEmail returns the account with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getBy(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

// GetByDocument returns the account with the given document, or nil if not found.
func (r *PostgresRepository) GetByDocument(ctx context.Context, document string) (*domain.Account, error) {
	return r.getBy(ctx, `SELECT `+accountColumns+` FROM accounts WHERE document = $1`, document)
}

func (r *PostgresRepository) getBy(ctx context.Context, query, arg string) (*domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Document, &a.Email,
		&a.PasswordHash, &a.Balance, &a.Role, &a.Version, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.WrapErr(err)
	}
	return &a, nil
}

// List returns all accounts ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, db.WrapErr(err)
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(
			&a.ID, &a.FirstName, &a.LastName, &a.Document, &a.Email,
			&a.PasswordHash, &a.Balance, &a.Role, &a.Version, &a.CreatedAt,
		); err != nil {
			return nil, db.WrapErr(err)
		}
		out = append(out, &a)
	}
	return out, db.WrapErr(rows.Err())
}

// Create persists a new account. The account must have ID and Version set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, first_name, last_name, document, email, password_hash, balance, role, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.FirstName, a.LastName, a.Document, a.Email,
		a.PasswordHash, a.Balance, a.Role, a.Version, a.CreatedAt,
	)
	return db.WrapErr(err)
}

// Save updates the account with compare-and-save semantics on the version
// column. Returns ErrConflict if the stored version no longer matches.
func (r *PostgresRepository) Save(ctx context.Context, a *domain.Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET first_name = $2, last_name = $3, balance = $4, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $5`,
		a.ID, a.FirstName, a.LastName, a.Balance, a.Version,
	)
	if err != nil {
		return db.WrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	a.Version++
	return nil
}
