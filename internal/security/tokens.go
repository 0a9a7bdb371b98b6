package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or signed
// with the wrong key, or when a refresh token is presented where an access
// token is required (and vice versa).
var ErrInvalidToken = errors.New("invalid token")

// refreshTokenType marks refresh tokens via the token_type claim so a
// long-lived refresh token can never pass as an access token.
const refreshTokenType = "refresh"

// Principal is the authenticated identity resolved from a token.
type Principal struct {
	AccountID string
	Email     string
	Role      string
}

// Claims holds JWT claims for both access and refresh tokens. TokenType is
// empty for access tokens and "refresh" for refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Authorities []string `json:"authorities,omitempty"`
	TokenType   string   `json:"token_type,omitempty"`
}

// TokenProvider issues and validates JWT access and refresh tokens using RS256 or ES256 (private/public key).
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given private key (RS256 or ES256).
// issuer and audience are set on claims and validated on parse.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccess issues a stateless access JWT for the given principal. The token
// embeds the account id (sub), email, role, and role-derived authorities.
// Returns the token string, its jti, and expiration time.
func (p *TokenProvider) IssueAccess(principal Principal) (token string, jti string, expiresAt time.Time, err error) {
	return p.issue(principal, "", p.accessTTL)
}

// IssueRefresh issues a refresh JWT carrying the "refresh" token_type marker.
// The caller must persist its hash to the token store keyed to the account.
func (p *TokenProvider) IssueRefresh(principal Principal) (token string, jti string, expiresAt time.Time, err error) {
	return p.issue(principal, refreshTokenType, p.refreshTTL)
}

func (p *TokenProvider) issue(principal Principal, tokenType string, ttl time.Duration) (string, string, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   principal.AccountID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:       principal.Email,
		Role:        principal.Role,
		Authorities: []string{"ROLE_" + principal.Role},
		TokenType:   tokenType,
	}
	token, err := p.sign(claims)
	return token, jti, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// ValidateAccess parses and validates an access token (signature, exp, iss, aud)
// without consulting any store. Refresh tokens are rejected.
func (p *TokenProvider) ValidateAccess(tokenString string) (Principal, error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return Principal{}, err
	}
	if claims.TokenType != "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{AccountID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// ValidateRefresh parses and validates a refresh token (signature, exp, iss,
// aud, and the refresh marker). Store checks (revocation, persistence) are the
// caller's responsibility.
func (p *TokenProvider) ValidateRefresh(tokenString string) (Principal, error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return Principal{}, err
	}
	if claims.TokenType != refreshTokenType {
		return Principal{}, ErrInvalidToken
	}
	return Principal{AccountID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

func (p *TokenProvider) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return p.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
