// Package events publishes transfer-completed events to Kafka. Publishing is
// best-effort: the ledger is the source of truth, events only feed downstream
// consumers.
package events

import (
	"time"
)

// TransferCompleted is the wire payload for one completed transfer. Amount is
// the decimal string representation to keep exact precision in JSON.
type TransferCompleted struct {
	TransferID string    `json:"transfer_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Amount     string    `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}
