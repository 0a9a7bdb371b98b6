// Package service implements account registration and lookup.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"flashpay/backend/internal/account/domain"
	"flashpay/backend/internal/security"
)

// Sentinel errors for the account service; the handler maps them to HTTP statuses.
var (
	ErrNotFound          = errors.New("account not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateDocument = errors.New("document already registered")
)

// Repo is the minimal account repository needed by the account service.
type Repo interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByDocument(ctx context.Context, document string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
}

// Service creates and looks up accounts.
type Service struct {
	accounts Repo
	hasher   *security.Hasher
}

// NewService returns a Service with the given dependencies.
func NewService(accounts Repo, hasher *security.Hasher) *Service {
	return &Service{accounts: accounts, hasher: hasher}
}

// CreateInput carries the fields for a new account. InitialBalance defaults
// to zero when nil; Role defaults to ORDINARY when empty.
type CreateInput struct {
	FirstName      string
	LastName       string
	Document       string
	Email          string
	Password       string
	Role           domain.Role
	InitialBalance *decimal.Decimal
}

// Create registers a new account. Email and document must be unique.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Account, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	document := strings.TrimSpace(in.Document)

	if existing, err := s.accounts.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		slog.Warn("attempt to register duplicate email", "email", email)
		return nil, ErrDuplicateEmail
	}
	if existing, err := s.accounts.GetByDocument(ctx, document); err != nil {
		return nil, err
	} else if existing != nil {
		slog.Warn("attempt to register duplicate document", "document", document)
		return nil, ErrDuplicateDocument
	}

	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = domain.RoleOrdinary
	}
	balance := decimal.Zero
	if in.InitialBalance != nil {
		balance = *in.InitialBalance
	}

	a := &domain.Account{
		ID:           uuid.New().String(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Document:     document,
		Email:        email,
		PasswordHash: hashed,
		Balance:      balance,
		Role:         role,
		Version:      1,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	slog.Info("account created", "account_id", a.ID, "email", a.Email, "role", a.Role)
	return a, nil
}

// GetByID returns the account for id or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]*domain.Account, error) {
	return s.accounts.List(ctx)
}
