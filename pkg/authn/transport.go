package authn

import (
	"net/http"
	"time"
)

// Transport writes issued tokens onto a response according to the
// configured cookie and header policy.
type Transport struct {
	cfg Config
	now func() time.Time
}

// SetAccess writes the access token to the cookie and/or the Authorization
// response header.
func (t Transport) SetAccess(w http.ResponseWriter, tok Token) {
	if t.cfg.AccessTransport.cookie() {
		http.SetCookie(w, t.cookie(t.cfg.Cookie.AccessName, tok.Value, tok.ExpiresAt, t.cfg.AccessCookieHTTPOnly))
	}
	if t.cfg.AccessTransport.header() {
		w.Header().Set(DefaultAccessHeader, "Bearer "+tok.Value)
	}
}

// SetRefresh writes the refresh cookie. It is never readable by scripts.
func (t Transport) SetRefresh(w http.ResponseWriter, tok Token) {
	http.SetCookie(w, t.cookie(t.cfg.Cookie.RefreshName, tok.Value, tok.ExpiresAt, true))
}

// Clear expires both cookies on the client.
func (t Transport) Clear(w http.ResponseWriter) {
	for _, name := range []string{t.cfg.Cookie.AccessName, t.cfg.Cookie.RefreshName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     t.cfg.Cookie.Path,
			Domain:   t.cfg.Cookie.Domain,
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			Secure:   t.cfg.Cookie.Secure,
			HttpOnly: name == t.cfg.Cookie.RefreshName || t.cfg.AccessCookieHTTPOnly,
			SameSite: t.cfg.Cookie.SameSite,
		})
	}
}

func (t Transport) cookie(name, value string, expires time.Time, httpOnly bool) *http.Cookie {
	maxAge := int(expires.Sub(t.now()).Seconds())
	if maxAge <= 0 {
		// MaxAge 0 means "no Max-Age attribute"; force deletion instead.
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     t.cfg.Cookie.Path,
		Domain:   t.cfg.Cookie.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   t.cfg.Cookie.Secure,
		HttpOnly: httpOnly,
		SameSite: t.cfg.Cookie.SameSite,
	}
}
