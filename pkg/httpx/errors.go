package httpx

import (
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/blogd/pkg/authn"
)

// Error is a JSON error response, {"error": ..., "error_description": ...}.
type Error struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Write sends the error with no-store cache headers.
func (e *Error) Write(w http.ResponseWriter) {
	WriteJSON(w, e.Status, e)
}

// WithDescription returns a copy of e with a different description.
func (e *Error) WithDescription(format string, args ...any) *Error {
	c := *e
	c.Description = fmt.Sprintf(format, args...)
	return &c
}

// NewError builds an Error.
func NewError(status int, code, description string) *Error {
	return &Error{Status: status, Code: code, Description: description}
}

var (
	ErrInvalidRequest  = NewError(http.StatusBadRequest, "invalid_request", "The request is missing a required parameter or is malformed.")
	ErrUnauthorized    = NewError(http.StatusUnauthorized, "unauthorized", "Authentication required.")
	ErrForbidden       = NewError(http.StatusForbidden, "forbidden", "You are not allowed to modify this resource.")
	ErrNotFound        = NewError(http.StatusNotFound, "not_found", "The requested resource does not exist.")
	ErrConflict        = NewError(http.StatusConflict, "conflict", "The resource already exists.")
	ErrPayloadTooLarge = NewError(http.StatusRequestEntityTooLarge, "payload_too_large", "The request body is too large.")
	ErrRateLimited     = NewError(http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
	ErrServer          = NewError(http.StatusInternalServerError, "server_error", "The server encountered an unexpected condition.")
)

var failureDescriptions = map[authn.Failure]string{
	authn.NoTokenProvided:     "No token provided.",
	authn.NoRefreshToken:      "Access token is invalid or expired and no refresh token was provided.",
	authn.InvalidRefreshToken: "Invalid token. Log in again.",
	authn.InternalError:       "Authentication could not be completed. Retry the request.",
}

// AuthError maps an authentication failure to its response. The body never
// includes token content or the underlying cause.
func AuthError(f authn.Failure) *Error {
	return NewError(f.StatusCode(), f.String(), failureDescriptions[f])
}
