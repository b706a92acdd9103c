package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs for the dual-token session. Services override these
// through authn.Config.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 1 * time.Hour

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 24 * time.Hour
)

// Kind separates access tokens from refresh tokens. It is carried in the
// "typ" claim so a refresh token can never be presented as an access token
// even if both were somehow signed with the same secret.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Identity is the only user data ever encoded into a token.
type Identity struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
}

// Claims are the claims carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims

	// Username for the authenticated user
	Username string `json:"username"`

	// Kind is either "access" or "refresh"
	Kind Kind `json:"typ"`
}

// NewClaims builds minimally-correct claims for the given identity.
func NewClaims(
	kind Kind,
	id Identity,
	issuer, jti string,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		Username: id.Username,
		Kind:     kind,
	}
}

// Identity returns the identity asserted by the claims.
func (c Claims) Identity() Identity {
	return Identity{
		UserID:   c.Subject,
		Username: c.Username,
	}
}

// Expiry returns the exp claim, or the zero time when absent.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
