package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash([]byte("s3cret-password"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "s3cret-password" {
		t.Fatal("hash empty or equal to plaintext")
	}

	if err := h.Compare(hash, []byte("s3cret-password")); err != nil {
		t.Errorf("Compare with correct password: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong-password")); err == nil {
		t.Error("Compare with wrong password should fail")
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if h := NewHasher(0); h.Cost != bcrypt.DefaultCost {
		t.Errorf("cost 0 should default to %d, got %d", bcrypt.DefaultCost, h.Cost)
	}
	if h := NewHasher(100); h.Cost != bcrypt.MaxCost {
		t.Errorf("cost 100 should clamp to %d, got %d", bcrypt.MaxCost, h.Cost)
	}
}
