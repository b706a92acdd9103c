package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/aussiebroadwan/blogd/pkg/httpx"
	"github.com/aussiebroadwan/blogd/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var alice = jwtx.Identity{UserID: "01HZY3Q6V6B7W1QK3K0M7J8N9P", Username: "alice"}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type failingRevoker struct{}

func (failingRevoker) Revoke(context.Context, string, time.Time) error { return errors.New("redis down") }
func (failingRevoker) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

type authFixture struct {
	clock  *clock
	issuer *authn.Issuer
	auth   *authn.Authenticator
}

func newAuthFixture(t *testing.T, opts ...authn.Option) *authFixture {
	t.Helper()

	cfg := authn.DefaultConfig()
	cfg.AccessSecret = []byte("access-secret-0123456789abcdefghijklmnop")
	cfg.RefreshSecret = []byte("refresh-secret-0123456789abcdefghijklmno")

	c := &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec := jwtx.NewCodec(cfg.Issuer)
	codec.Now = c.Now

	issuer, err := authn.NewIssuer(cfg, codec)
	require.NoError(t, err)
	return &authFixture{clock: c, issuer: issuer, auth: authn.NewAuthenticator(issuer, opts...)}
}

func (f *authFixture) session(t *testing.T) authn.Session {
	t.Helper()
	s, err := f.issuer.IssueSession(alice)
	require.NoError(t, err)
	return s
}

func withCookies(req *http.Request, access, refresh string) *http.Request {
	if access != "" {
		req.AddCookie(&http.Cookie{Name: authn.DefaultAccessCookie, Value: access})
	}
	if refresh != "" {
		req.AddCookie(&http.Cookie{Name: authn.DefaultRefreshCookie, Value: refresh})
	}
	return req
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// identityHandler records the identity it was called with.
type identityHandler struct {
	called  bool
	ac      authn.AuthContext
	userID  string
	renewed *authn.Token
}

func (h *identityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ac, _ = authn.FromContext(r.Context())
	h.userID, _ = httpx.UserIDFromContext(r.Context())
	if tok, ok := httpx.RenewedAccessFromContext(r.Context()); ok {
		h.renewed = &tok
	}
	w.WriteHeader(http.StatusOK)
}

func TestGuard(t *testing.T) {
	t.Run("no tokens", func(t *testing.T) {
		f := newAuthFixture(t)
		next := &identityHandler{}

		rec := serve(httpx.Guard(f.auth)(next), httptest.NewRequest(http.MethodGet, "/v1/profile", nil))

		require.False(t, next.called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "no_token_provided", decodeError(t, rec).Error)
		require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("valid access token", func(t *testing.T) {
		f := newAuthFixture(t)
		next := &identityHandler{}
		s := f.session(t)

		rec := serve(httpx.Guard(f.auth)(next), withCookies(httptest.NewRequest(http.MethodGet, "/", nil), s.Access.Value, ""))

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, next.called)
		require.Equal(t, alice, next.ac.Identity())
		require.Equal(t, alice.UserID, next.userID)
		require.Empty(t, rec.Header().Get("Authorization"))
		require.Nil(t, next.renewed)
	})

	t.Run("expired access without refresh", func(t *testing.T) {
		f := newAuthFixture(t)
		next := &identityHandler{}
		s := f.session(t)
		f.clock.Advance(2 * time.Hour)

		rec := serve(httpx.Guard(f.auth)(next), withCookies(httptest.NewRequest(http.MethodGet, "/", nil), s.Access.Value, ""))

		require.False(t, next.called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "no_refresh_token", decodeError(t, rec).Error)
	})

	t.Run("silent renewal", func(t *testing.T) {
		f := newAuthFixture(t)
		next := &identityHandler{}
		s := f.session(t)
		f.clock.Advance(2 * time.Hour)

		rec := serve(httpx.Guard(f.auth)(next), withCookies(httptest.NewRequest(http.MethodGet, "/", nil), s.Access.Value, s.Refresh.Value))

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, next.called)
		require.Equal(t, "alice", next.ac.Username)
		require.Contains(t, rec.Header().Get("Authorization"), "Bearer ")
		require.NotContains(t, rec.Header().Get("Authorization"), s.Access.Value)
		require.NotNil(t, next.renewed)
		require.Equal(t, "Bearer "+next.renewed.Value, rec.Header().Get("Authorization"))
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		f := newAuthFixture(t)
		next := &identityHandler{}
		s := f.session(t)
		f.clock.Advance(25 * time.Hour)

		rec := serve(httpx.Guard(f.auth)(next), withCookies(httptest.NewRequest(http.MethodGet, "/", nil), s.Access.Value, s.Refresh.Value))

		require.False(t, next.called)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_refresh_token", decodeError(t, rec).Error)
		require.NotContains(t, rec.Body.String(), s.Refresh.Value)
		require.NotContains(t, rec.Body.String(), s.Access.Value)
	})

	t.Run("revocation backend failure", func(t *testing.T) {
		f := newAuthFixture(t, authn.WithRevoker(failingRevoker{}))
		next := &identityHandler{}
		s := f.session(t)

		rec := serve(httpx.Guard(f.auth)(next), withCookies(httptest.NewRequest(http.MethodGet, "/", nil), s.Access.Value, ""))

		require.False(t, next.called)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "internal_error", decodeError(t, rec).Error)
		require.NotContains(t, rec.Body.String(), "redis")
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestAuthErrorMapping(t *testing.T) {
	for _, f := range []authn.Failure{authn.NoTokenProvided, authn.NoRefreshToken, authn.InvalidRefreshToken, authn.InternalError} {
		e := httpx.AuthError(f)
		require.Equal(t, f.StatusCode(), e.Status)
		require.Equal(t, f.String(), e.Code)
		require.NotEmpty(t, e.Description)
	}
}
