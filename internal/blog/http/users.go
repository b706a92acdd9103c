package http

import (
	"net/http"

	"github.com/aussiebroadwan/blogd/internal/blog/service"
	"github.com/aussiebroadwan/blogd/pkg/blogsdk"
	"github.com/aussiebroadwan/blogd/pkg/httpx"
)

type UsersHandler struct {
	AccountService *service.AccountService
	BioService     *service.BioService
}

// HandleProfile returns the logged-in user.
//
//	@Summary	Current user
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	blogsdk.UserResponse
//	@Failure	401	{object}	blogsdk.ErrorResponse
//	@Router		/v1/profile [get].
func (h *UsersHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	u, err := h.AccountService.Profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, blogsdk.UserResponse{ID: u.ID, Username: u.Username})
}

// HandlePublicProfile returns anyone's name and bio.
//
//	@Summary	Public profile
//	@Tags		Users
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	blogsdk.PublicProfileResponse
//	@Failure	404	{object}	blogsdk.ErrorResponse
//	@Router		/v1/users/{id} [get].
func (h *UsersHandler) HandlePublicProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.AccountService.PublicProfileOf(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, blogsdk.PublicProfileResponse{UserResponse: author(p.Author), Bio: p.Bio})
}

// HandleGetBio returns the caller's bio.
//
//	@Summary	Own bio
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	blogsdk.BioResponse
//	@Router		/v1/bio [get].
func (h *UsersHandler) HandleGetBio(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	b, err := h.BioService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := blogsdk.BioResponse{Content: b.Content}
	if !b.UpdatedAt.IsZero() {
		resp.UpdatedAt = &b.UpdatedAt
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandlePutBio replaces the caller's bio.
//
//	@Summary	Update own bio
//	@Tags		Users
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		blogsdk.BioRequest	true	"Bio"
//	@Success	200		{object}	blogsdk.BioResponse
//	@Failure	400		{object}	blogsdk.ErrorResponse
//	@Router		/v1/bio [put].
func (h *UsersHandler) HandlePutBio(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	var req blogsdk.BioRequest
	if herr := httpx.DecodeJSON(w, r, &req); herr != nil {
		herr.Write(w)
		return
	}

	b, err := h.BioService.Upsert(r.Context(), userID, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, blogsdk.BioResponse{Content: b.Content, UpdatedAt: &b.UpdatedAt})
}
