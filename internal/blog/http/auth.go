package http

import (
	"net/http"

	"github.com/aussiebroadwan/blogd/internal/blog/service"
	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/aussiebroadwan/blogd/pkg/blogsdk"
	"github.com/aussiebroadwan/blogd/pkg/httpx"
	"github.com/aussiebroadwan/blogd/pkg/slogx"
)

type AuthHandler struct {
	AccountService *service.AccountService
	Authenticator  *authn.Authenticator
}

// HandleRegister creates an account.
//
//	@Summary		Register
//	@Description	Creates an account. Usernames are 4 to 32 letters, digits, '.', '_' or '-'; passwords 8 to 256 characters.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		blogsdk.CredentialsRequest	true	"Credentials"
//	@Success		201		{object}	blogsdk.UserResponse
//	@Failure		400		{object}	blogsdk.ErrorResponse	"Invalid username or password format"
//	@Failure		409		{object}	blogsdk.ErrorResponse	"Username taken"
//	@Failure		429		{object}	blogsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req blogsdk.CredentialsRequest
	if herr := httpx.DecodeJSON(w, r, &req); herr != nil {
		herr.Write(w)
		return
	}

	u, err := h.AccountService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, blogsdk.UserResponse{ID: u.ID, Username: u.Username})
}

// HandleLogin starts a session.
//
//	@Summary		Login
//	@Description	Verifies the credentials and arms the session: the access token is returned in the
//	@Description	"authorization" cookie and the Authorization header, the refresh token in the HttpOnly
//	@Description	"refreshToken" cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		blogsdk.CredentialsRequest	true	"Credentials"
//	@Success		200		{object}	blogsdk.UserResponse
//	@Failure		400		{object}	blogsdk.ErrorResponse	"Invalid credentials"
//	@Failure		429		{object}	blogsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req blogsdk.CredentialsRequest
	if herr := httpx.DecodeJSON(w, r, &req); herr != nil {
		herr.Write(w)
		return
	}

	u, sess, err := h.AccountService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Authenticator.Issuer().Arm(w, sess)
	httpx.WriteJSON(w, http.StatusOK, blogsdk.UserResponse{ID: u.ID, Username: u.Username})
}

// HandleLogout ends the session.
//
//	@Summary		Logout
//	@Description	Revokes the presented tokens when revocation is enabled and clears the session cookies.
//	@Tags			Auth
//	@Success		200
//	@Failure		500	{object}	blogsdk.ErrorResponse	"Revocation failed; cookies were still cleared"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Authenticator.Logout(r.Context(), w, r); err != nil {
		slogx.FromContext(r.Context()).Error("failed to revoke tokens on logout", "error", err)
		httpx.ErrServer.Write(w)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
}

// HandleRefresh confirms the session.
//
//	@Summary		Refresh session
//	@Description	Runs the session guard. When the access token had expired a new one is minted from the
//	@Description	refresh cookie and returned here as well as in the cookie and header.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	blogsdk.RefreshResponse
//	@Failure		400	{object}	blogsdk.ErrorResponse	"Invalid refresh token"
//	@Failure		401	{object}	blogsdk.ErrorResponse	"No token provided"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ac, ok := authn.FromContext(r.Context())
	if !ok {
		httpx.ErrUnauthorized.Write(w)
		return
	}

	resp := blogsdk.RefreshResponse{UserResponse: blogsdk.UserResponse{ID: ac.UserID, Username: ac.Username}}
	if tok, renewed := httpx.RenewedAccessFromContext(r.Context()); renewed {
		resp.Renewed = true
		resp.AccessToken = tok.Value
		resp.ExpiresAt = &tok.ExpiresAt
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
