package http

import (
	"net/http"

	"github.com/aussiebroadwan/blogd/internal/blog/service"
	"github.com/aussiebroadwan/blogd/pkg/httpx"
)

type FavoritesHandler struct {
	FavoriteService *service.FavoriteService
	views           viewBuilder
}

// HandleList returns the caller's favorite posts.
//
//	@Summary	List favorites
//	@Tags		Favorites
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	blogsdk.PostListResponse
//	@Router		/v1/favorites [get].
func (h *FavoritesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	posts, err := h.FavoriteService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, h.views.posts(posts))
}

// HandleAdd marks a post as favorite. Repeating it is a no-op.
//
//	@Summary	Add favorite
//	@Tags		Favorites
//	@Security	BearerAuth
//	@Param		postID	path	string	true	"Post ID"
//	@Success	204
//	@Failure	404	{object}	blogsdk.ErrorResponse
//	@Router		/v1/favorites/{postID} [put].
func (h *FavoritesHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.FavoriteService.Add(r.Context(), userID, r.PathValue("postID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemove unmarks a post. Removing a missing favorite is a no-op.
//
//	@Summary	Remove favorite
//	@Tags		Favorites
//	@Security	BearerAuth
//	@Param		postID	path	string	true	"Post ID"
//	@Success	204
//	@Router		/v1/favorites/{postID} [delete].
func (h *FavoritesHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.FavoriteService.Remove(r.Context(), userID, r.PathValue("postID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
