package repository

import (
	"context"
	"errors"

	"flashpay/backend/internal/account/domain"
)

// ErrConflict is returned by Save when the account changed since it was read
// (compare-and-save failure). Callers re-read and retry or give up.
var ErrConflict = errors.New("account was modified concurrently")

// Repository defines persistence for accounts. Get methods return (nil, nil)
// when no account matches; errors are reserved for store failures.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByDocument(ctx context.Context, document string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	// Save updates the account iff its stored version still equals a.Version,
	// then increments the version. Returns ErrConflict on a lost race.
	Save(ctx context.Context, a *domain.Account) error
}
