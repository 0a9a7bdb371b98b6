// Package service implements the funds transfer engine: validation, atomic
// balance mutation, and the append-only ledger record.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	accountdomain "flashpay/backend/internal/account/domain"
	accountrepo "flashpay/backend/internal/account/repository"
	"flashpay/backend/internal/ledger/domain"
	"flashpay/backend/internal/metrics"
)

// Sentinel errors for the transfer engine; the handler maps them to HTTP statuses.
var (
	ErrSelfTransfer        = errors.New("sender and receiver must be distinct accounts")
	ErrAccountNotFound     = errors.New("account not found")
	ErrShopkeeperSender    = errors.New("shopkeepers cannot send transfers")
	ErrInvalidAmount       = errors.New("transfer amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConcurrentUpdate    = errors.New("transfer aborted after concurrent balance updates")
)

// maxAttempts bounds the validate-and-mutate retries on compare-and-save conflicts.
const maxAttempts = 3

// AccountRepo is the minimal account repository needed by the engine.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
}

// LedgerRepo is the minimal ledger repository needed by the engine.
type LedgerRepo interface {
	ApplyTransfer(ctx context.Context, sender, receiver *accountdomain.Account, t *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Transfer, error)
}

// Publisher emits transfer-completed events. Best-effort: failures are logged
// and never affect the transfer result.
type Publisher interface {
	PublishTransferCompleted(ctx context.Context, t *domain.Transfer) error
}

// TransferService validates and executes balance transfers.
type TransferService struct {
	accounts  AccountRepo
	ledger    LedgerRepo
	publisher Publisher // nil disables events
}

// NewTransferService returns a TransferService. publisher may be nil.
func NewTransferService(accounts AccountRepo, ledger LedgerRepo, publisher Publisher) *TransferService {
	return &TransferService{accounts: accounts, ledger: ledger, publisher: publisher}
}

// Transfer atomically moves amount from sender to receiver and records one
// ledger entry. Preconditions are checked in a fixed order, each failing with
// its own sentinel error and no side effects. On a compare-and-save conflict
// the whole validate-and-mutate sequence is retried up to maxAttempts times.
func (s *TransferService) Transfer(ctx context.Context, senderID, receiverID string, amount decimal.Decimal) (*domain.Transfer, error) {
	if senderID == receiverID {
		return s.reject(ErrSelfTransfer)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		t, err := s.attempt(ctx, senderID, receiverID, amount)
		if err != nil {
			if errors.Is(err, accountrepo.ErrConflict) {
				slog.Debug("transfer hit concurrent update, retrying",
					"sender_id", senderID, "receiver_id", receiverID, "attempt", attempt+1)
				continue
			}
			return s.reject(err)
		}

		metrics.TransfersTotal.WithLabelValues("completed").Inc()
		slog.Info("transfer completed",
			"transfer_id", t.ID, "sender_id", t.SenderID, "receiver_id", t.ReceiverID, "amount", t.Amount.String())
		s.publish(ctx, t)
		return t, nil
	}
	return s.reject(ErrConcurrentUpdate)
}

func (s *TransferService) attempt(ctx context.Context, senderID, receiverID string, amount decimal.Decimal) (*domain.Transfer, error) {
	sender, err := s.accounts.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.accounts.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if sender == nil || receiver == nil {
		return nil, ErrAccountNotFound
	}
	if !sender.CanSend() {
		slog.Warn("transfer attempted by shopkeeper", "sender_id", sender.ID)
		return nil, ErrShopkeeperSender
	}
	if !amount.IsPositive() || amount.Exponent() < -2 {
		return nil, ErrInvalidAmount
	}
	if sender.Balance.LessThan(amount) {
		slog.Warn("insufficient balance",
			"sender_id", sender.ID, "requested", amount.String(), "available", sender.Balance.String())
		return nil, ErrInsufficientBalance
	}

	sender.Balance = sender.Balance.Sub(amount)
	receiver.Balance = receiver.Balance.Add(amount)

	t := &domain.Transfer{
		ID:         uuid.New().String(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.ledger.ApplyTransfer(ctx, sender, receiver, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TransferService) reject(err error) (*domain.Transfer, error) {
	metrics.TransfersTotal.WithLabelValues("rejected").Inc()
	return nil, err
}

func (s *TransferService) publish(ctx context.Context, t *domain.Transfer) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransferCompleted(ctx, t); err != nil {
		slog.Error("transfer event publish failed", "transfer_id", t.ID, "error", err)
	}
}

// ErrTransferNotFound is returned when no ledger entry matches the id, or the
// caller is not a participant.
var ErrTransferNotFound = errors.New("transfer not found")

// Get returns the ledger entry for id. Only the sender and the receiver may
// see it; anyone else gets ErrTransferNotFound so entry ids never leak.
func (s *TransferService) Get(ctx context.Context, id, callerID string) (*domain.Transfer, error) {
	t, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || (t.SenderID != callerID && t.ReceiverID != callerID) {
		return nil, ErrTransferNotFound
	}
	return t, nil
}

// History returns transfers sent or received by the account, newest first.
func (s *TransferService) History(ctx context.Context, accountID string, limit int) ([]*domain.Transfer, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	return s.ledger.ListByAccount(ctx, accountID, limit)
}
