package authn

import (
	"context"

	"github.com/aussiebroadwan/blogd/pkg/jwtx"
)

// AuthContext is the authenticated identity of the current request. It
// lives only in the request context.
type AuthContext struct {
	UserID   string
	Username string
}

type ctxKey struct{}

// WithAuthContext attaches the identity to ctx.
func WithAuthContext(ctx context.Context, id jwtx.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, AuthContext{UserID: id.UserID, Username: id.Username})
}

// FromContext returns the AuthContext set by the guard, if any.
func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(ctxKey{}).(AuthContext)
	if !ok || ac.UserID == "" {
		return AuthContext{}, false
	}
	return ac, true
}

// Identity converts the context value back into a token identity.
func (a AuthContext) Identity() jwtx.Identity {
	return jwtx.Identity{UserID: a.UserID, Username: a.Username}
}
