// Package domain defines the immutable ledger entry for a completed transfer.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is one ledger entry: created exactly once when a transfer
// completes, never updated or deleted.
type Transfer struct {
	ID         string
	SenderID   string
	ReceiverID string
	Amount     decimal.Decimal
	CreatedAt  time.Time
}
