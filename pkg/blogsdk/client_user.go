package blogsdk

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) GetBio(ctx context.Context) (*BioResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/bio", nil, "")
	if err != nil {
		return nil, err
	}
	var out BioResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBio(ctx context.Context, content string) (*BioResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPut, "/v1/bio", BioRequest{Content: content})
	if err != nil {
		return nil, err
	}
	var out BioResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFavorites(ctx context.Context) ([]PostResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/favorites", nil, "")
	if err != nil {
		return nil, err
	}
	var out PostListResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

func (c *Client) AddFavorite(ctx context.Context, postID string) error {
	resp, err := c.do(ctx, http.MethodPut, "/v1/favorites/"+url.PathEscape(postID), nil, "")
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

func (c *Client) RemoveFavorite(ctx context.Context, postID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/v1/favorites/"+url.PathEscape(postID), nil, "")
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}
