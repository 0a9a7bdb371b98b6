// Package domain defines the persisted refresh token record. Access tokens
// are stateless and never stored.
package domain

import "time"

// RefreshToken is the stored record for one issued refresh token. The raw
// token never hits the store; records are keyed by its SHA-256 hash.
type RefreshToken struct {
	ID         string
	AccountID  string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	RevokedAt  *time.Time // nil when not revoked
	DeviceInfo string
	CreatedAt  time.Time
}

// Usable reports whether the token may still mint access tokens:
// not revoked and not past expiry.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// Expired reports whether the token's expiry has elapsed.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
