package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMalformed         = errors.New("jwtx: malformed token")
	ErrExpired           = errors.New("jwtx: token expired")
	ErrSignatureMismatch = errors.New("jwtx: signature mismatch")

	// ErrEmptySecret is a configuration fault, not a token fault.
	ErrEmptySecret = errors.New("jwtx: empty secret")
)

// Codec signs and verifies HS256 identity assertions. A Codec holds no key
// material; secrets are passed per call so the same codec serves both token
// kinds.
type Codec struct {
	// Issuer is written to and required in the iss claim. Empty disables the check.
	Issuer string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// NewJTI returns the jti for new tokens. Defaults to a random UUID.
	NewJTI func() string
}

// NewCodec returns a codec using the wall clock and random token ids.
func NewCodec(issuer string) *Codec {
	return &Codec{
		Issuer: issuer,
		Now:    time.Now,
		NewJTI: uuid.NewString,
	}
}

func (c *Codec) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

func (c *Codec) jti() string {
	if c.NewJTI == nil {
		return uuid.NewString()
	}
	return c.NewJTI()
}

// Issue signs a token of the given kind asserting id, valid for ttl.
func (c *Codec) Issue(kind Kind, id Identity, secret []byte, ttl time.Duration) (string, Claims, error) {
	if len(secret) == 0 {
		return "", Claims{}, ErrEmptySecret
	}
	if ttl <= 0 {
		return "", Claims{}, fmt.Errorf("jwtx: non-positive ttl %s", ttl)
	}

	// Truncate so the returned claims match what a later Verify decodes.
	now := c.now().Truncate(time.Second)
	claims := NewClaims(kind, id, c.Issuer, c.jti(), ttl, now)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign %s token: %w", kind, err)
	}
	return token, claims, nil
}

// Verify checks signature, expiry and kind, in that order. The returned
// error is always one of ErrMalformed, ErrExpired, ErrSignatureMismatch or
// ErrEmptySecret.
func (c *Codec) Verify(kind Kind, token string, secret []byte) (Claims, error) {
	if len(secret) == 0 {
		return Claims{}, ErrEmptySecret
	}
	if token == "" {
		return Claims{}, ErrMalformed
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.Leeway),
	}
	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	if claims.Kind != kind {
		return Claims{}, fmt.Errorf("%w: expected %s token", ErrMalformed, kind)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	return claims, nil
}

// classify folds the jwt library's error tree into the codec taxonomy.
// The parser checks the signature before any time claim, so a token signed
// with another secret is a mismatch even when it is also expired.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureMismatch
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		// nbf in the future, missing exp, wrong issuer
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
