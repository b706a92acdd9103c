package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/aussiebroadwan/blogd/internal/blog/service"
	"github.com/aussiebroadwan/blogd/pkg/blogsdk"
	"github.com/aussiebroadwan/blogd/pkg/httpx"
	"github.com/aussiebroadwan/blogd/pkg/media"
	"github.com/aussiebroadwan/blogd/pkg/slogx"
)

var (
	errInvalidCredentials = httpx.NewError(http.StatusBadRequest, blogsdk.ErrorCodeInvalidCredentials, "Invalid username or password.")
	errUsernameTaken      = httpx.NewError(http.StatusConflict, blogsdk.ErrorCodeUsernameTaken, "That username is already taken.")
)

// writeServiceError maps service sentinels to responses. Anything unknown
// is logged and reported as a server error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.ErrInvalidRequest.WithDescription("%s", verr.Error()).Write(w)
	case errors.Is(err, service.ErrInvalidUsername):
		httpx.ErrInvalidRequest.WithDescription("Username must be %d to %d letters, digits, '.', '_' or '-'.",
			domain.MinUsernameLength, domain.MaxUsernameLength).Write(w)
	case errors.Is(err, service.ErrInvalidPassword):
		httpx.ErrInvalidRequest.WithDescription("Password must be %d to %d characters.",
			domain.MinPasswordLength, domain.MaxPasswordLength).Write(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		errInvalidCredentials.Write(w)
	case errors.Is(err, service.ErrUsernameTaken):
		errUsernameTaken.Write(w)
	case errors.Is(err, service.ErrNotFound):
		httpx.ErrNotFound.Write(w)
	case errors.Is(err, service.ErrForbidden):
		httpx.ErrForbidden.Write(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.ErrServer.Write(w)
	}
}

// identity returns the user set by Guard. Routes using it are always
// guarded, so a missing identity is a wiring bug.
func identity(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		httpx.ErrUnauthorized.Write(w)
	}
	return id, ok
}

// viewBuilder renders domain values into API responses.
type viewBuilder struct {
	media        media.Stager
	defaultCover string
}

func (v viewBuilder) coverURL(key string) string {
	if key == "" || v.media == nil {
		return v.defaultCover
	}
	return v.media.URL(key)
}

func (v viewBuilder) post(p domain.PostView) blogsdk.PostResponse {
	return blogsdk.PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Summary:   p.Summary,
		Content:   p.Content,
		CoverURL:  v.coverURL(p.Cover),
		Author:    author(p.Author),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (v viewBuilder) posts(ps []domain.PostView) blogsdk.PostListResponse {
	out := blogsdk.PostListResponse{Posts: make([]blogsdk.PostResponse, 0, len(ps))}
	for _, p := range ps {
		out.Posts = append(out.Posts, v.post(p))
	}
	return out
}

func author(a domain.Author) blogsdk.UserResponse {
	return blogsdk.UserResponse{ID: a.ID, Username: a.Username}
}

func comment(c domain.CommentView) blogsdk.CommentResponse {
	return blogsdk.CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		Author:    author(c.Author),
		CreatedAt: c.CreatedAt,
	}
}
