package token

import (
	"context"
	"sync"
	"testing"
	"time"

	"flashpay/backend/internal/token/domain"
)

type memTokenRepo struct {
	mu sync.Mutex
	m  map[string]*domain.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{m: make(map[string]*domain.RefreshToken)}
}

func (r *memTokenRepo) Create(ctx context.Context, t *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.m[t.ID] = &c
	return nil
}

func (r *memTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.m {
		if t.TokenHash == tokenHash {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memTokenRepo) ListByAccount(ctx context.Context, accountID string) ([]*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.RefreshToken
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
	for _, t := range r.m {
		if t.TokenHash == tokenHash && !t.Revoked {
			now := time.Now().UTC()
			t.Revoked = true
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *memTokenRepo) CountUsable(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.m {
		if t.Usable(now) {
			n++
		}
	}
	return n, nil
}

func (r *memTokenRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.m {
		if t.ExpiresAt.Before(cutoff) {
			delete(r.m, id)
			n++
		}
	}
	return n, nil
}

func (r *memTokenRepo) DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.m {
		if t.Revoked && t.RevokedAt != nil && t.RevokedAt.Before(cutoff) {
			delete(r.m, id)
			n++
		}
	}
	return n, nil
}

func (r *memTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

func record(id string, expiresIn time.Duration) *domain.RefreshToken {
	now := time.Now().UTC()
	return &domain.RefreshToken{
		ID:        id,
		AccountID: "account-1",
		TokenHash: "hash-" + id,
		ExpiresAt: now.Add(expiresIn),
		CreatedAt: now,
	}
}

func revokedRecord(id string, revokedAgo time.Duration) *domain.RefreshToken {
	t := record(id, 24*time.Hour)
	at := time.Now().UTC().Add(-revokedAgo)
	t.Revoked = true
	t.RevokedAt = &at
	return t
}

func TestSweepExpiredRemovesOnlyExpired(t *testing.T) {
	repo := newMemTokenRepo()
	ctx := context.Background()
	repo.Create(ctx, record("live", 24*time.Hour))
	repo.Create(ctx, record("expired-1", -time.Hour))
	repo.Create(ctx, record("expired-2", -30*24*time.Hour))

	cleaner := NewCleaner(repo, 720*time.Hour)
	n, err := cleaner.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if repo.count() != 1 {
		t.Errorf("remaining = %d, want 1", repo.count())
	}
	if live, _ := repo.GetByTokenHash(ctx, "hash-live"); live == nil {
		t.Error("live token was swept")
	}
}

func TestSweepRevokedHonorsRetention(t *testing.T) {
	repo := newMemTokenRepo()
	ctx := context.Background()
	repo.Create(ctx, record("live", 24*time.Hour))
	repo.Create(ctx, revokedRecord("revoked-recent", time.Hour))
	repo.Create(ctx, revokedRecord("revoked-old", 31*24*time.Hour))

	cleaner := NewCleaner(repo, 720*time.Hour) // 30d retention
	n, err := cleaner.SweepRevoked(ctx)
	if err != nil {
		t.Fatalf("SweepRevoked: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	// Recently revoked records stay within the retention window.
	if recent, _ := repo.GetByTokenHash(ctx, "hash-revoked-recent"); recent == nil {
		t.Error("recently revoked token was swept before retention elapsed")
	}
	if old, _ := repo.GetByTokenHash(ctx, "hash-revoked-old"); old != nil {
		t.Error("old revoked token survived the sweep")
	}
}

func TestSweepEmptyStore(t *testing.T) {
	repo := newMemTokenRepo()
	cleaner := NewCleaner(repo, 720*time.Hour)
	ctx := context.Background()

	if n, err := cleaner.SweepExpired(ctx); err != nil || n != 0 {
		t.Errorf("SweepExpired = (%d, %v), want (0, nil)", n, err)
	}
	if n, err := cleaner.SweepRevoked(ctx); err != nil || n != 0 {
		t.Errorf("SweepRevoked = (%d, %v), want (0, nil)", n, err)
	}
}

func TestUsableExcludesRevokedAndExpired(t *testing.T) {
	repo := newMemTokenRepo()
	ctx := context.Background()
	repo.Create(ctx, record("live", 24*time.Hour))
	repo.Create(ctx, record("expired", -time.Hour))
	repo.Create(ctx, revokedRecord("revoked", time.Hour))

	n, err := repo.CountUsable(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("CountUsable: %v", err)
	}
	if n != 1 {
		t.Errorf("usable = %d, want 1", n)
	}
}
