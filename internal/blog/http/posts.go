package http

import (
	"net/http"

	"github.com/aussiebroadwan/blogd/internal/blog/service"
	"github.com/aussiebroadwan/blogd/pkg/httpx"
)

type PostsHandler struct {
	PostService *service.PostService
	views       viewBuilder
}

// HandleList returns the newest posts.
//
//	@Summary	Recent posts
//	@Tags		Posts
//	@Produce	json
//	@Success	200	{object}	blogsdk.PostListResponse
//	@Router		/v1/posts [get].
func (h *PostsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.PostService.ListRecent(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.views.posts(posts))
}

// HandleGet returns one post.
//
//	@Summary	Get post
//	@Tags		Posts
//	@Produce	json
//	@Param		id	path		string	true	"Post ID"
//	@Success	200	{object}	blogsdk.PostResponse
//	@Failure	404	{object}	blogsdk.ErrorResponse
//	@Router		/v1/posts/{id} [get].
func (h *PostsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.PostService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.views.post(p))
}

// HandleCreate publishes a post.
//
//	@Summary	Create post
//	@Tags		Posts
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		title	formData	string	true	"Title"
//	@Param		summary	formData	string	false	"Summary"
//	@Param		content	formData	string	true	"Content"
//	@Param		file	formData	file	false	"Cover image"
//	@Success	201		{object}	blogsdk.PostResponse
//	@Failure	400		{object}	blogsdk.ErrorResponse
//	@Failure	401		{object}	blogsdk.ErrorResponse
//	@Failure	413		{object}	blogsdk.ErrorResponse
//	@Router		/v1/posts [post].
func (h *PostsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	p, err := h.PostService.Create(r.Context(), userID, postInput(r), cover(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, h.views.post(p))
}

// HandleUpdate edits a post. Without a file the cover is kept.
//
//	@Summary	Update post
//	@Tags		Posts
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id		path		string	true	"Post ID"
//	@Param		title	formData	string	true	"Title"
//	@Param		summary	formData	string	false	"Summary"
//	@Param		content	formData	string	true	"Content"
//	@Param		file	formData	file	false	"Replacement cover image"
//	@Success	200		{object}	blogsdk.PostResponse
//	@Failure	400		{object}	blogsdk.ErrorResponse
//	@Failure	403		{object}	blogsdk.ErrorResponse	"Not the author"
//	@Failure	404		{object}	blogsdk.ErrorResponse
//	@Router		/v1/posts/{id} [put].
func (h *PostsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	p, err := h.PostService.Update(r.Context(), userID, r.PathValue("id"), postInput(r), cover(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.views.post(p))
}

// HandleDelete removes a post with its comments and cover.
//
//	@Summary	Delete post
//	@Tags		Posts
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Post ID"
//	@Success	204
//	@Failure	403	{object}	blogsdk.ErrorResponse	"Not the author"
//	@Failure	404	{object}	blogsdk.ErrorResponse
//	@Router		/v1/posts/{id} [delete].
func (h *PostsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.PostService.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// postInput reads the text fields StageUpload already parsed.
func postInput(r *http.Request) service.PostInput {
	return service.PostInput{
		Title:   r.FormValue("title"),
		Summary: r.FormValue("summary"),
		Content: r.FormValue("content"),
	}
}

// cover returns the staged upload as a service.Cover, or a nil interface
// when the request carried no file.
func cover(r *http.Request) service.Cover {
	if u, ok := httpx.UploadFromContext(r.Context()); ok {
		return u
	}
	return nil
}
