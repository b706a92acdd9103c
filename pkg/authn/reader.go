package authn

import (
	"net/http"
	"strings"
)

// Credentials are the raw token strings found on a request. Either may be
// empty.
type Credentials struct {
	Access  string
	Refresh string
}

// Empty reports whether no token was found at all.
func (c Credentials) Empty() bool { return c.Access == "" && c.Refresh == "" }

// Source is one transport channel credentials may arrive on.
type Source interface {
	Name() string
	Read(r *http.Request) Credentials
}

// CookieSource reads tokens from named cookies.
type CookieSource struct {
	AccessName  string
	RefreshName string
}

func (s CookieSource) Name() string { return "cookie" }

func (s CookieSource) Read(r *http.Request) Credentials {
	return Credentials{
		Access:  cookieValue(r, s.AccessName),
		Refresh: cookieValue(r, s.RefreshName),
	}
}

func cookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// HeaderSource reads tokens from request headers. The access header may
// carry either "Bearer <token>" or the bare token.
type HeaderSource struct {
	AccessHeader  string
	RefreshHeader string
}

func (s HeaderSource) Name() string { return "header" }

func (s HeaderSource) Read(r *http.Request) Credentials {
	var creds Credentials
	if s.AccessHeader != "" {
		creds.Access = stripBearer(r.Header.Get(s.AccessHeader))
	}
	if s.RefreshHeader != "" {
		creds.Refresh = strings.TrimSpace(r.Header.Get(s.RefreshHeader))
	}
	return creds
}

func stripBearer(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "bearer") {
		return ""
	}
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}

// CredentialReader probes its sources in order. The access and refresh
// tokens are resolved independently: each takes the first non-empty value.
type CredentialReader struct {
	Sources []Source
}

// NewCredentialReader returns a reader over the given sources.
func NewCredentialReader(sources ...Source) *CredentialReader {
	return &CredentialReader{Sources: sources}
}

// DefaultReader probes cookies first, then headers. Browsers always send
// the freshest cookie; header-only clients have no cookies to shadow them.
func DefaultReader(cfg Config) *CredentialReader {
	return NewCredentialReader(
		CookieSource{AccessName: cfg.Cookie.AccessName, RefreshName: cfg.Cookie.RefreshName},
		HeaderSource{AccessHeader: DefaultAccessHeader, RefreshHeader: DefaultRefreshHeader},
	)
}

// Read returns the credentials found on r.
func (cr *CredentialReader) Read(r *http.Request) Credentials {
	var out Credentials
	for _, src := range cr.Sources {
		c := src.Read(r)
		if out.Access == "" {
			out.Access = c.Access
		}
		if out.Refresh == "" {
			out.Refresh = c.Refresh
		}
		if out.Access != "" && out.Refresh != "" {
			break
		}
	}
	return out
}
