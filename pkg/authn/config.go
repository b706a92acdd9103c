package authn

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/blogd/pkg/jwtx"
)

// MinSecretLength is the minimum HS256 secret size in bytes.
const MinSecretLength = 32

// Default transport names. The cookie names match what existing browser
// clients already store.
const (
	DefaultAccessCookie  = "authorization"
	DefaultRefreshCookie = "refreshToken"
	DefaultAccessHeader  = "Authorization"
	DefaultRefreshHeader = "X-Refresh-Token"
)

var (
	ErrMissingSecret = errors.New("authn: access and refresh secrets are required")
	ErrShortSecret   = errors.New("authn: secret too short")
	ErrSameSecret    = errors.New("authn: access and refresh secrets must differ")
	ErrTTLOrder      = errors.New("authn: refresh ttl must exceed access ttl")
	ErrTransport     = errors.New("authn: unknown access transport")
)

// AccessTransport selects where the access token is written on issuance.
type AccessTransport string

const (
	AccessViaCookie AccessTransport = "cookie"
	AccessViaHeader AccessTransport = "header"
	AccessViaBoth   AccessTransport = "both"
)

func (t AccessTransport) cookie() bool { return t == AccessViaCookie || t == AccessViaBoth }
func (t AccessTransport) header() bool { return t == AccessViaHeader || t == AccessViaBoth }

// CookieConfig controls the attributes of both session cookies.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Path        string
	Secure      bool
	SameSite    http.SameSite
}

// Config is the process-wide session configuration. Build it once at
// startup, call Validate, and share it read-only.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Issuer is written into the iss claim and required on verify.
	Issuer string

	AccessTransport      AccessTransport
	AccessCookieHTTPOnly bool // Refresh cookie is always HttpOnly

	// SlidingRefresh re-issues the refresh token on every renewal.
	SlidingRefresh bool

	Cookie CookieConfig
}

// DefaultConfig returns the defaults with no secrets set.
func DefaultConfig() Config {
	return Config{
		AccessTTL:       jwtx.DefaultAccessTokenTTL,
		RefreshTTL:      jwtx.DefaultRefreshTokenTTL,
		Issuer:          "blogd",
		AccessTransport: AccessViaBoth,
		Cookie: CookieConfig{
			AccessName:  DefaultAccessCookie,
			RefreshName: DefaultRefreshCookie,
			Path:        "/",
			Secure:      true,
			SameSite:    http.SameSiteStrictMode,
		},
	}
}

// Validate enforces the invariants that must hold for the lifetime of the
// process. It fills zero-valued optional fields with defaults.
func (c *Config) Validate() error {
	def := DefaultConfig()

	if len(c.AccessSecret) == 0 || len(c.RefreshSecret) == 0 {
		return ErrMissingSecret
	}
	if len(c.AccessSecret) < MinSecretLength || len(c.RefreshSecret) < MinSecretLength {
		return fmt.Errorf("%w: need at least %d bytes", ErrShortSecret, MinSecretLength)
	}
	if string(c.AccessSecret) == string(c.RefreshSecret) {
		return ErrSameSecret
	}

	if c.AccessTTL <= 0 {
		c.AccessTTL = def.AccessTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = def.RefreshTTL
	}
	if c.RefreshTTL <= c.AccessTTL {
		return fmt.Errorf("%w: access=%s refresh=%s", ErrTTLOrder, c.AccessTTL, c.RefreshTTL)
	}

	if c.AccessTransport == "" {
		c.AccessTransport = def.AccessTransport
	}
	switch c.AccessTransport {
	case AccessViaCookie, AccessViaHeader, AccessViaBoth:
	default:
		return fmt.Errorf("%w: %q", ErrTransport, c.AccessTransport)
	}

	if c.Cookie.AccessName == "" {
		c.Cookie.AccessName = def.Cookie.AccessName
	}
	if c.Cookie.RefreshName == "" {
		c.Cookie.RefreshName = def.Cookie.RefreshName
	}
	if c.Cookie.Path == "" {
		c.Cookie.Path = def.Cookie.Path
	}
	if c.Cookie.SameSite == 0 {
		c.Cookie.SameSite = def.Cookie.SameSite
	}

	return nil
}

// ParseSameSite maps "strict", "lax" and "none" to http.SameSite.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("authn: unknown samesite mode %q", s)
	}
}
