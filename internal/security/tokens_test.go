package security

import (
	"errors"
	"testing"
	"time"
)

func TestTokenProvider_IssueAccessAndRefresh(t *testing.T) {
	p, err := NewTestTokenProvider(15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	principal := Principal{AccountID: "a1", Email: "a@example.com", Role: "ORDINARY"}

	access, accessJti, exp, err := p.IssueAccess(principal)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access == "" || accessJti == "" {
		t.Fatal("access token or jti empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("access expiry in the past")
	}

	refresh, jti, refreshExp, err := p.IssueRefresh(principal)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if refresh == "" || jti == "" {
		t.Fatal("refresh token or jti empty")
	}
	if refreshExp.Before(exp) {
		t.Fatal("refresh should outlive access")
	}

	got, err := p.ValidateAccess(access)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if got != principal {
		t.Errorf("ValidateAccess principal = %+v, want %+v", got, principal)
	}

	got, err = p.ValidateRefresh(refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if got != principal {
		t.Errorf("ValidateRefresh principal = %+v, want %+v", got, principal)
	}
}

func TestTokenProvider_RejectsWrongKind(t *testing.T) {
	p, err := NewTestTokenProvider(15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	principal := Principal{AccountID: "a1", Email: "a@example.com", Role: "ORDINARY"}

	access, _, _, err := p.IssueAccess(principal)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, _, _, err := p.IssueRefresh(principal)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	if _, err := p.ValidateRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateRefresh(access token): want ErrInvalidToken, got %v", err)
	}
	if _, err := p.ValidateAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateAccess(refresh token): want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_RejectsMalformedAndExpired(t *testing.T) {
	p, err := NewTestTokenProvider(-time.Minute, -time.Minute)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	principal := Principal{AccountID: "a1", Email: "a@example.com", Role: "ORDINARY"}

	if _, err := p.ValidateAccess("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("malformed token: want ErrInvalidToken, got %v", err)
	}

	expired, _, _, err := p.IssueAccess(principal)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(expired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_RejectsForeignKey(t *testing.T) {
	p1, err := NewTestTokenProvider(15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	p2, err := NewTestTokenProvider(15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	token, _, _, err := p1.IssueAccess(Principal{AccountID: "a1", Role: "ORDINARY"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p2.ValidateAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed by other key: want ErrInvalidToken, got %v", err)
	}
}
