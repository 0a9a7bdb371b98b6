// Package service implements the session token lifecycle: registration and
// login issue access/refresh pairs, refresh mints new access tokens from
// stored refresh tokens, and logout revokes them.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	accountdomain "flashpay/backend/internal/account/domain"
	accountservice "flashpay/backend/internal/account/service"
	"flashpay/backend/internal/metrics"
	"flashpay/backend/internal/security"
	tokendomain "flashpay/backend/internal/token/domain"
)

// Sentinel errors for the auth service; the handler maps them to HTTP statuses.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// AuthResult holds issued tokens and the owning account. RefreshToken is
// empty on Refresh: refreshing rotates the access token only.
type AuthResult struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	Account          *accountdomain.Account
}

// AccountRegistrar creates accounts; satisfied by the account service.
type AccountRegistrar interface {
	Create(ctx context.Context, in accountservice.CreateInput) (*accountdomain.Account, error)
}

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error)
}

// TokenRepo is the minimal refresh token repository needed by the auth service.
type TokenRepo interface {
	Create(ctx context.Context, t *tokendomain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*tokendomain.RefreshToken, error)
	ListByAccount(ctx context.Context, accountID string) ([]*tokendomain.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
}

// AuthService implements register, login, refresh, and logout.
type AuthService struct {
	registrar AccountRegistrar
	accounts  AccountRepo
	tokens    TokenRepo
	hasher    *security.Hasher
	provider  *security.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(registrar AccountRegistrar, accounts AccountRepo, tokens TokenRepo, hasher *security.Hasher, provider *security.TokenProvider) *AuthService {
	return &AuthService{
		registrar: registrar,
		accounts:  accounts,
		tokens:    tokens,
		hasher:    hasher,
		provider:  provider,
	}
}

// Register creates an account and issues an access/refresh token pair.
// Duplicate email/document errors from the account service pass through.
func (s *AuthService) Register(ctx context.Context, in accountservice.CreateInput, deviceInfo string) (*AuthResult, error) {
	account, err := s.registrar.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, account, deviceInfo)
}

// Login authenticates with email and password and issues a token pair.
// Failures never reveal whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password, deviceInfo string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		slog.Warn("login for unknown email", "email", email)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(account.PasswordHash, []byte(password)); err != nil {
		slog.Warn("login with wrong password", "account_id", account.ID)
		return nil, ErrInvalidCredentials
	}
	slog.Info("login succeeded", "account_id", account.ID)
	return s.issueTokens(ctx, account, deviceInfo)
}

// Refresh validates the refresh token against signature, expiry, marker, and
// the token store, then issues a fresh access token for its account. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	account, err := s.resolveRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	access, _, accessExp, err := s.provider.IssueAccess(principalOf(account))
	if err != nil {
		return nil, err
	}
	metrics.TokensIssued.WithLabelValues("access").Inc()
	slog.Info("access token refreshed", "account_id", account.ID)
	return &AuthResult{
		AccessToken:     access,
		AccessExpiresAt: accessExp,
		Account:         account,
	}, nil
}

// Logout revokes the stored refresh token. Idempotent: revoking a missing or
// already-revoked token succeeds as a no-op so token existence never leaks.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, security.HashRefreshToken(refreshToken))
}

// Sessions returns the account's refresh token records, including revoked and
// expired ones not yet swept. Token hashes stay server-side; callers must
// strip them before responding.
func (s *AuthService) Sessions(ctx context.Context, accountID string) ([]*tokendomain.RefreshToken, error) {
	return s.tokens.ListByAccount(ctx, accountID)
}

// resolveRefresh runs every refresh token check: signature, expiry, refresh
// marker, a stored record that is neither revoked nor expired, and a live
// account. All failures collapse to ErrInvalidRefreshToken.
func (s *AuthService) resolveRefresh(ctx context.Context, refreshToken string) (*accountdomain.Account, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	principal, err := s.provider.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	record, err := s.tokens.GetByTokenHash(ctx, security.HashRefreshToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if record == nil || !record.Usable(time.Now().UTC()) {
		return nil, ErrInvalidRefreshToken
	}
	account, err := s.accounts.GetByID(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.ID != record.AccountID {
		return nil, ErrInvalidRefreshToken
	}
	return account, nil
}

func (s *AuthService) issueTokens(ctx context.Context, account *accountdomain.Account, deviceInfo string) (*AuthResult, error) {
	principal := principalOf(account)

	access, _, accessExp, err := s.provider.IssueAccess(principal)
	if err != nil {
		return nil, err
	}
	refresh, _, refreshExp, err := s.provider.IssueRefresh(principal)
	if err != nil {
		return nil, err
	}

	record := &tokendomain.RefreshToken{
		ID:         uuid.New().String(),
		AccountID:  account.ID,
		TokenHash:  security.HashRefreshToken(refresh),
		ExpiresAt:  refreshExp,
		DeviceInfo: strings.TrimSpace(deviceInfo),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	metrics.TokensIssued.WithLabelValues("access").Inc()
	metrics.TokensIssued.WithLabelValues("refresh").Inc()

	return &AuthResult{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		Account:          account,
	}, nil
}

func principalOf(a *accountdomain.Account) security.Principal {
	return security.Principal{AccountID: a.ID, Email: a.Email, Role: string(a.Role)}
}
