package repository

import (
	"context"

	accountdomain "flashpay/backend/internal/account/domain"
	"flashpay/backend/internal/ledger/domain"
)

// Repository persists ledger entries. The ledger is append-only: there is no
// update or delete operation.
type Repository interface {
	// ApplyTransfer commits both compare-and-save account updates and the
	// ledger insert as one atomic unit. sender and receiver must carry the
	// versions they were read at; returns account repository ErrConflict if
	// either version no longer matches, leaving everything untouched.
	ApplyTransfer(ctx context.Context, sender, receiver *accountdomain.Account, t *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	// ListByAccount returns transfers the account sent or received, newest first.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Transfer, error)
}
