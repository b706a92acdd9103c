package authn

import (
	"context"
	"time"
)

// Revoker is an optional deny-list of token ids. Entries only need to live
// until the token would have expired anyway.
type Revoker interface {
	// Revoke marks jti as revoked until the given time.
	Revoke(ctx context.Context, jti string, until time.Time) error

	// IsRevoked reports whether jti has been revoked. An error means the
	// backend could not answer and the request must fail closed.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NoopRevoker never revokes anything. Logged-out tokens stay valid until
// they expire.
type NoopRevoker struct{}

func (NoopRevoker) Revoke(context.Context, string, time.Time) error { return nil }

func (NoopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }
