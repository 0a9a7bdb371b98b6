package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	accountdomain "flashpay/backend/internal/account/domain"
	accountservice "flashpay/backend/internal/account/service"
	"flashpay/backend/internal/security"
	tokendomain "flashpay/backend/internal/token/domain"
)

type memAccountRepo struct {
	mu sync.Mutex
	m  map[string]*accountdomain.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{m: make(map[string]*accountdomain.Account)}
}

func (r *memAccountRepo) GetByID(ctx context.Context, id string) (*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func (r *memAccountRepo) GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.m {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) add(a *accountdomain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[a.ID] = a
}

// memRegistrar creates accounts directly, skipping uniqueness checks.
type memRegistrar struct {
	accounts *memAccountRepo
	hasher   *security.Hasher
}

func (r *memRegistrar) Create(ctx context.Context, in accountservice.CreateInput) (*accountdomain.Account, error) {
	hash, err := r.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}
	a := &accountdomain.Account{
		ID:           uuid.New().String(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Document:     in.Document,
		Email:        in.Email,
		PasswordHash: hash,
		Balance:      decimal.Zero,
		Role:         accountdomain.RoleOrdinary,
		Version:      1,
		CreatedAt:    time.Now().UTC(),
	}
	r.accounts.add(a)
	return a, nil
}

type memTokenRepo struct {
	mu sync.Mutex
	m  map[string]*tokendomain.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{m: make(map[string]*tokendomain.RefreshToken)}
}

func (r *memTokenRepo) Create(ctx context.Context, t *tokendomain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.m[t.TokenHash] = &c
	return nil
}

func (r *memTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*tokendomain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.m[tokenHash]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *memTokenRepo) ListByAccount(ctx context.Context, accountID string) ([]*tokendomain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*tokendomain.RefreshToken
	for _, t := range r.m {
		if t.AccountID == accountID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.m[tokenHash]; ok && !t.Revoked {
		now := time.Now().UTC()
		t.Revoked = true
		t.RevokedAt = &now
	}
	return nil
}

func (r *memTokenRepo) remove(tokenHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, tokenHash)
}

func (r *memTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

func newTestAuthService(t *testing.T) (*AuthService, *memAccountRepo, *memTokenRepo) {
	t.Helper()
	provider, err := security.NewTestTokenProvider(15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("test token provider: %v", err)
	}
	hasher := security.NewHasher(4) // MinCost keeps the suite fast
	accounts := newMemAccountRepo()
	tokens := newMemTokenRepo()
	registrar := &memRegistrar{accounts: accounts, hasher: hasher}
	return NewAuthService(registrar, accounts, tokens, hasher, provider), accounts, tokens
}

func register(t *testing.T, svc *AuthService, email string) *AuthResult {
	t.Helper()
	result, err := svc.Register(context.Background(), accountservice.CreateInput{
		FirstName: "Test",
		LastName:  "User",
		Document:  uuid.New().String(),
		Email:     email,
		Password:  "password123",
	}, "test-device")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return result
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)

	result := register(t, svc, "alice@example.com")
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if result.AccessToken == result.RefreshToken {
		t.Error("access and refresh tokens must differ")
	}
	if result.Account == nil || result.Account.Email != "alice@example.com" {
		t.Errorf("unexpected account in result: %+v", result.Account)
	}
	if tokens.count() != 1 {
		t.Errorf("stored refresh tokens = %d, want 1", tokens.count())
	}

	stored, err := tokens.GetByTokenHash(context.Background(), security.HashRefreshToken(result.RefreshToken))
	if err != nil || stored == nil {
		t.Fatalf("stored refresh token lookup: %v, %v", stored, err)
	}
	if stored.TokenHash == result.RefreshToken {
		t.Error("refresh token stored in plaintext")
	}
	if stored.DeviceInfo != "test-device" {
		t.Errorf("device info = %q, want test-device", stored.DeviceInfo)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	register(t, svc, "alice@example.com")

	result, err := svc.Login(context.Background(), "Alice@Example.com", "password123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	if _, err := svc.Login(context.Background(), "alice@example.com", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "password123", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty credentials: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshRotatesAccessOnly(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)
	session := register(t, svc, "alice@example.com")

	result, err := svc.Refresh(context.Background(), session.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected a new access token")
	}
	if result.RefreshToken != "" {
		t.Error("refresh must not rotate the refresh token")
	}
	if tokens.count() != 1 {
		t.Errorf("stored refresh tokens = %d, want 1", tokens.count())
	}

	// The original refresh token keeps working after a refresh.
	if _, err := svc.Refresh(context.Background(), session.RefreshToken); err != nil {
		t.Errorf("second Refresh: %v", err)
	}
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	session := register(t, svc, "alice@example.com")

	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("empty token: err = %v, want ErrInvalidRefreshToken", err)
	}
	if _, err := svc.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("garbage token: err = %v, want ErrInvalidRefreshToken", err)
	}
	// An access token carries no refresh marker and has no stored record.
	if _, err := svc.Refresh(context.Background(), session.AccessToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("access token: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshRejectsSweptRecord(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)
	session := register(t, svc, "alice@example.com")

	// A well-signed refresh token whose stored record is gone (swept by the
	// cleanup worker) must be rejected.
	tokens.remove(security.HashRefreshToken(session.RefreshToken))
	if _, err := svc.Refresh(context.Background(), session.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("swept record: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	session := register(t, svc, "alice@example.com")

	if err := svc.Logout(context.Background(), session.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), session.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("refresh after logout: err = %v, want ErrInvalidRefreshToken", err)
	}

	// Revocation is permanent and logout is idempotent.
	if err := svc.Logout(context.Background(), session.RefreshToken); err != nil {
		t.Errorf("repeated Logout: %v", err)
	}
	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Errorf("empty Logout: %v", err)
	}
	if err := svc.Logout(context.Background(), "unknown-token"); err != nil {
		t.Errorf("unknown Logout: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), session.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("refresh after repeated logout: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestLoginsCreateIndependentSessions(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)
	register(t, svc, "alice@example.com")

	first, err := svc.Login(context.Background(), "alice@example.com", "password123", "laptop")
	if err != nil {
		t.Fatalf("first Login: %v", err)
	}
	second, err := svc.Login(context.Background(), "alice@example.com", "password123", "phone")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if tokens.count() != 3 { // register + two logins
		t.Errorf("stored refresh tokens = %d, want 3", tokens.count())
	}

	// Revoking one session leaves the other usable.
	if err := svc.Logout(context.Background(), first.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Errorf("surviving session refresh: %v", err)
	}
}
