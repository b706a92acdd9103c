package httpx

import (
	"context"

	"github.com/aussiebroadwan/blogd/pkg/authn"
)

type ctxKey string

const (
	CtxKeyUserID  ctxKey = "user_id"
	ctxKeyUpload  ctxKey = "staged_upload"
	ctxKeyRenewed ctxKey = "renewed_access"
)

// UserIDFromContext returns the id stored by Guard, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(string)
	return id, ok && id != ""
}

// RenewedAccessFromContext returns the access token Guard minted for this
// request. ok is false when the presented access token was still valid.
func RenewedAccessFromContext(ctx context.Context) (authn.Token, bool) {
	tok, ok := ctx.Value(ctxKeyRenewed).(authn.Token)
	return tok, ok
}
