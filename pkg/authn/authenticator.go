package authn

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/blogd/pkg/cryptox"
	"github.com/aussiebroadwan/blogd/pkg/jwtx"
	"github.com/aussiebroadwan/blogd/pkg/slogx"
)

// Failure is why a request was rejected. The zero value means the request
// was authenticated.
type Failure int

const (
	FailureNone Failure = iota
	NoTokenProvided
	NoRefreshToken
	InvalidRefreshToken
	InternalError
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "authenticated"
	case NoTokenProvided:
		return "no_token_provided"
	case NoRefreshToken:
		return "no_refresh_token"
	case InvalidRefreshToken:
		return "invalid_refresh_token"
	case InternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("failure(%d)", int(f))
	}
}

// StatusCode is the HTTP status a rejection maps to.
func (f Failure) StatusCode() int {
	switch f {
	case FailureNone:
		return http.StatusOK
	case NoTokenProvided, NoRefreshToken:
		return http.StatusUnauthorized
	case InvalidRefreshToken:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the client may resend the identical request.
// Every other failure requires logging in again.
func (f Failure) Retryable() bool { return f == InternalError }

// Stages name the step a result was decided at. They are safe to log.
const (
	StageRead       = "read"
	StageAccess     = "access"
	StageRefresh    = "refresh"
	StageRenew      = "renew"
	StageRevocation = "revocation"
)

// Result is the single outcome of Authenticate.
type Result struct {
	Identity jwtx.Identity
	Failure  Failure
	Stage    string

	// Renewed is set when a new access token was minted from the refresh
	// token. Access holds that token; Refresh is only set when the refresh
	// token was also rotated.
	Renewed bool
	Access  *Token
	Refresh *Token

	// Err is the underlying cause for logs. It never contains token material.
	Err error
}

// Authenticated reports whether the request may proceed.
func (r Result) Authenticated() bool { return r.Failure == FailureNone }

// Authenticator runs the access-then-refresh state machine for one request.
type Authenticator struct {
	issuer  *Issuer
	reader  *CredentialReader
	revoker Revoker
}

// Option customises an Authenticator.
type Option func(*Authenticator)

// WithReader replaces the default cookie-then-header reader.
func WithReader(r *CredentialReader) Option {
	return func(a *Authenticator) { a.reader = r }
}

// WithRevoker enables the revocation check on every verify.
func WithRevoker(r Revoker) Option {
	return func(a *Authenticator) {
		if r != nil {
			a.revoker = r
		}
	}
}

// NewAuthenticator returns an Authenticator minting renewals through issuer.
func NewAuthenticator(issuer *Issuer, opts ...Option) *Authenticator {
	a := &Authenticator{
		issuer:  issuer,
		reader:  DefaultReader(issuer.cfg),
		revoker: NoopRevoker{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Issuer returns the issuer used for renewals.
func (a *Authenticator) Issuer() *Issuer { return a.issuer }

// Authenticate decides whether r carries a usable session. On silent
// renewal the new access token is written to w before returning. It never
// writes an error response; the caller maps Result.Failure.
func (a *Authenticator) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request) Result {
	res := a.authenticate(ctx, w, r)

	mOutcomes.WithLabelValues(res.Failure.String()).Inc()
	if res.Renewed {
		mRenewals.Inc()
	}

	log := slogx.FromContext(ctx)
	switch {
	case res.Failure == InternalError:
		log.Error("authentication fault", "stage", res.Stage, "err", res.Err)
	case !res.Authenticated():
		log.Debug("authentication rejected", "stage", res.Stage, "outcome", res.Failure.String(), "err", res.Err)
	case res.Renewed:
		log.Info("access token renewed", "user_id", res.Identity.UserID, "rotated_refresh", res.Refresh != nil)
	}

	return res
}

func (a *Authenticator) authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request) Result {
	cfg := a.issuer.cfg
	codec := a.issuer.codec

	creds := a.reader.Read(r)
	if creds.Empty() {
		return Result{Failure: NoTokenProvided, Stage: StageRead}
	}

	// Access token first; the common case ends here.
	var accessErr error
	if creds.Access != "" {
		claims, err := codec.Verify(jwtx.KindAccess, creds.Access, cfg.AccessSecret)
		if err == nil {
			revoked, rerr := a.revoker.IsRevoked(ctx, claims.ID)
			switch {
			case rerr != nil:
				return internal(StageRevocation, rerr)
			case !revoked:
				return Result{Identity: claims.Identity(), Stage: StageAccess}
			}
			err = errRevoked
		}
		if errors.Is(err, jwtx.ErrEmptySecret) {
			return internal(StageAccess, err)
		}
		accessErr = fmt.Errorf("access token %s: %w", cryptox.LogFingerprint(creds.Access), err)
	}

	if creds.Refresh == "" {
		return Result{Failure: NoRefreshToken, Stage: StageAccess, Err: accessErr}
	}

	claims, err := codec.Verify(jwtx.KindRefresh, creds.Refresh, cfg.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwtx.ErrEmptySecret) {
			return internal(StageRefresh, err)
		}
		return Result{Failure: InvalidRefreshToken, Stage: StageRefresh, Err: err}
	}

	revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return internal(StageRevocation, err)
	}
	if revoked {
		return Result{Failure: InvalidRefreshToken, Stage: StageRefresh, Err: errRevoked}
	}

	return a.renew(ctx, w, claims)
}

// renew mints a new access token from verified refresh claims and arms the
// transport. Nothing is written unless every step succeeded.
func (a *Authenticator) renew(ctx context.Context, w http.ResponseWriter, refresh jwtx.Claims) Result {
	id := refresh.Identity()

	access, err := a.issuer.IssueAccess(id)
	if err != nil {
		return internal(StageRenew, err)
	}

	var rotated *Token
	if a.issuer.cfg.SlidingRefresh {
		next, err := a.issuer.issue(jwtx.KindRefresh, id, a.issuer.cfg.RefreshSecret, a.issuer.cfg.RefreshTTL)
		if err != nil {
			return internal(StageRenew, err)
		}
		rotated = &next
	}

	// Client went away; issue nothing.
	if err := ctx.Err(); err != nil {
		return internal(StageRenew, err)
	}

	// Revocation is the last step that can fail; once the old refresh token
	// is revoked its replacement is always armed.
	if rotated != nil {
		if err := a.revoker.Revoke(ctx, refresh.ID, refresh.Expiry()); err != nil {
			return internal(StageRevocation, err)
		}
	}

	a.issuer.transport.SetAccess(w, access)
	if rotated != nil {
		a.issuer.transport.SetRefresh(w, *rotated)
	}

	return Result{
		Identity: id,
		Stage:    StageRenew,
		Renewed:  true,
		Access:   &access,
		Refresh:  rotated,
	}
}

// Logout revokes whichever presented tokens still verify and clears the
// session cookies. Cookies are cleared even when revocation fails.
func (a *Authenticator) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cfg := a.issuer.cfg
	codec := a.issuer.codec
	creds := a.reader.Read(r)

	var errs []error
	if creds.Access != "" {
		if c, err := codec.Verify(jwtx.KindAccess, creds.Access, cfg.AccessSecret); err == nil {
			errs = append(errs, a.revoker.Revoke(ctx, c.ID, c.Expiry()))
		}
	}
	if creds.Refresh != "" {
		if c, err := codec.Verify(jwtx.KindRefresh, creds.Refresh, cfg.RefreshSecret); err == nil {
			errs = append(errs, a.revoker.Revoke(ctx, c.ID, c.Expiry()))
		}
	}

	a.issuer.transport.Clear(w)
	return errors.Join(errs...)
}

var errRevoked = errors.New("authn: token revoked")

func internal(stage string, err error) Result {
	return Result{Failure: InternalError, Stage: stage, Err: err}
}
