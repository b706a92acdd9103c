package authn

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/blogd/pkg/jwtx"
)

// Token is one signed token with the metadata needed to transport and
// revoke it.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Session is a freshly minted access/refresh pair.
type Session struct {
	Identity jwtx.Identity
	Access   Token
	Refresh  Token
}

// Issuer mints tokens for an already verified identity. Password checks
// happen before it is called.
type Issuer struct {
	cfg       Config
	codec     *jwtx.Codec
	transport Transport
}

// NewIssuer validates cfg and returns an Issuer. The codec's issuer claim
// is taken from cfg.
func NewIssuer(cfg Config, codec *jwtx.Codec) (*Issuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if codec == nil {
		codec = jwtx.NewCodec(cfg.Issuer)
	}
	codec.Issuer = cfg.Issuer

	now := codec.Now
	if now == nil {
		now = time.Now
	}

	return &Issuer{
		cfg:       cfg,
		codec:     codec,
		transport: Transport{cfg: cfg, now: now},
	}, nil
}

// Config returns the validated configuration.
func (i *Issuer) Config() Config { return i.cfg }

// Transport returns the response writer policy.
func (i *Issuer) Transport() Transport { return i.transport }

// IssueSession mints a new access and refresh token for id.
func (i *Issuer) IssueSession(id jwtx.Identity) (Session, error) {
	access, err := i.IssueAccess(id)
	if err != nil {
		return Session{}, err
	}
	refresh, err := i.issue(jwtx.KindRefresh, id, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{Identity: id, Access: access, Refresh: refresh}, nil
}

// IssueAccess mints only an access token. Only the identity fields are
// carried over into the new token.
func (i *Issuer) IssueAccess(id jwtx.Identity) (Token, error) {
	return i.issue(jwtx.KindAccess, id, i.cfg.AccessSecret, i.cfg.AccessTTL)
}

func (i *Issuer) issue(kind jwtx.Kind, id jwtx.Identity, secret []byte, ttl time.Duration) (Token, error) {
	if id.UserID == "" {
		return Token{}, fmt.Errorf("authn: cannot issue %s token without a user id", kind)
	}
	value, claims, err := i.codec.Issue(kind, jwtx.Identity{UserID: id.UserID, Username: id.Username}, secret, ttl)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: value, ID: claims.ID, ExpiresAt: claims.Expiry()}, nil
}

// Arm writes both tokens of s onto the response.
func (i *Issuer) Arm(w http.ResponseWriter, s Session) {
	i.transport.SetAccess(w, s.Access)
	i.transport.SetRefresh(w, s.Refresh)
}
