// Package domain defines the account entity and its role rules.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Role classifies an account. Shopkeepers may receive transfers but never send.
type Role string

const (
	RoleOrdinary   Role = "ORDINARY"
	RoleShopkeeper Role = "SHOPKEEPER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleOrdinary || r == RoleShopkeeper
}

// Account holds a monetary balance. Balance uses exact decimal arithmetic
// with two fractional digits; it must never go negative. Version backs the
// store's compare-and-save contract: every successful save increments it.
type Account struct {
	ID           string
	FirstName    string
	LastName     string
	Document     string
	Email        string
	PasswordHash string
	Balance      decimal.Decimal
	Role         Role
	Version      int64
	CreatedAt    time.Time
}

// Validate checks the identity facts and balance invariant.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("account id is required")
	}
	if a.FirstName == "" || a.LastName == "" {
		return errors.New("account name is required")
	}
	if a.Document == "" {
		return errors.New("account document is required")
	}
	if a.Email == "" {
		return errors.New("account email is required")
	}
	if !a.Role.Valid() {
		return errors.New("account role must be ORDINARY or SHOPKEEPER")
	}
	if a.Balance.IsNegative() {
		return errors.New("account balance must not be negative")
	}
	return nil
}

// CanSend reports whether the account may act as a transfer sender.
func (a *Account) CanSend() bool {
	return a.Role != RoleShopkeeper
}
