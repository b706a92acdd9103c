package http

import (
	"net/http"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/aussiebroadwan/blogd/internal/blog/service"
	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/aussiebroadwan/blogd/pkg/blogsdk"
	"github.com/aussiebroadwan/blogd/pkg/httpx"
)

type CommentsHandler struct {
	CommentService *service.CommentService
}

// HandleList returns a post's comments, oldest first.
//
//	@Summary	List comments
//	@Tags		Comments
//	@Produce	json
//	@Param		id	path		string	true	"Post ID"
//	@Success	200	{object}	blogsdk.CommentListResponse
//	@Failure	404	{object}	blogsdk.ErrorResponse
//	@Router		/v1/posts/{id}/comments [get].
func (h *CommentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.CommentService.ListForPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := blogsdk.CommentListResponse{Comments: make([]blogsdk.CommentResponse, 0, len(list))}
	for _, c := range list {
		resp.Comments = append(resp.Comments, comment(c))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleCreate comments on a post.
//
//	@Summary	Add comment
//	@Tags		Comments
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Post ID"
//	@Param		body	body		blogsdk.CommentRequest	true	"Comment"
//	@Success	201		{object}	blogsdk.CommentResponse
//	@Failure	400		{object}	blogsdk.ErrorResponse
//	@Failure	404		{object}	blogsdk.ErrorResponse
//	@Router		/v1/posts/{id}/comments [post].
func (h *CommentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ac, ok := authn.FromContext(r.Context())
	if !ok {
		httpx.ErrUnauthorized.Write(w)
		return
	}

	var req blogsdk.CommentRequest
	if herr := httpx.DecodeJSON(w, r, &req); herr != nil {
		herr.Write(w)
		return
	}

	c, err := h.CommentService.Create(r.Context(), ac.UserID, r.PathValue("id"), req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	view := domain.CommentView{Comment: c, Author: domain.Author{ID: ac.UserID, Username: ac.Username}}
	httpx.WriteJSON(w, http.StatusCreated, comment(view))
}

// HandleDelete removes a comment. Only its author may.
//
//	@Summary	Delete comment
//	@Tags		Comments
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Comment ID"
//	@Success	204
//	@Failure	403	{object}	blogsdk.ErrorResponse
//	@Failure	404	{object}	blogsdk.ErrorResponse
//	@Router		/v1/comments/{id} [delete].
func (h *CommentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.CommentService.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
