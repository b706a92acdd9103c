package httpx

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/blogd/pkg/authn"
)

// Guard authenticates every request with a. Rejected requests get the
// mapped error response and never reach next. Accepted requests carry the
// AuthContext and the user id in their context; a silent renewal has already
// been written to the response headers by the time next runs.
func Guard(a *authn.Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := a.Authenticate(r.Context(), w, r)
			if !res.Authenticated() {
				if res.Failure == authn.NoTokenProvided || res.Failure == authn.NoRefreshToken {
					w.Header().Set("WWW-Authenticate", `Bearer realm="blog"`)
				}
				AuthError(res.Failure).Write(w)
				return
			}

			ctx := authn.WithAuthContext(r.Context(), res.Identity)
			ctx = context.WithValue(ctx, CtxKeyUserID, res.Identity.UserID)
			if res.Renewed && res.Access != nil {
				ctx = context.WithValue(ctx, ctxKeyRenewed, *res.Access)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
