package blogsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ListPosts returns the newest posts.
func (c *Client) ListPosts(ctx context.Context) ([]PostResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/posts", nil, "")
	if err != nil {
		return nil, err
	}
	var out PostListResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*PostResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/posts/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, err
	}
	var out PostResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost uploads a post as multipart form data.
func (c *Client) CreatePost(ctx context.Context, p PostRequest) (*PostResponse, error) {
	resp, err := c.doMultipart(ctx, http.MethodPost, "/v1/posts", p)
	if err != nil {
		return nil, err
	}
	var out PostResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, p PostRequest) (*PostResponse, error) {
	resp, err := c.doMultipart(ctx, http.MethodPut, "/v1/posts/"+url.PathEscape(id), p)
	if err != nil {
		return nil, err
	}
	var out PostResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/v1/posts/"+url.PathEscape(id), nil, "")
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// ============================================================================
// Comments
// ============================================================================

func (c *Client) AddComment(ctx context.Context, postID, content string) (*CommentResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/posts/"+url.PathEscape(postID)+"/comments", CommentRequest{Content: content})
	if err != nil {
		return nil, err
	}
	var out CommentResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListComments(ctx context.Context, postID string) ([]CommentResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/posts/"+url.PathEscape(postID)+"/comments", nil, "")
	if err != nil {
		return nil, err
	}
	var out CommentListResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/v1/comments/"+url.PathEscape(id), nil, "")
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}
