package blogsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, username, password string) (*UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", CredentialsRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login starts a session. The cookies land in the jar and the access token
// is kept for bearer use.
func (c *Client) Login(ctx context.Context, username, password string) (*UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", CredentialsRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session on the server and forgets the local tokens.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/auth/logout", nil, "")
	if err != nil {
		return err
	}
	err = checkStatus(resp, http.StatusOK)
	c.SetAccessToken("")
	if u, perr := url.Parse(c.BaseURL); perr == nil && c.HTTPClient.Jar != nil {
		// The server already expired the cookies; this covers a failed call.
		for _, ck := range c.HTTPClient.Jar.Cookies(u) {
			ck.MaxAge = -1
			c.HTTPClient.Jar.SetCookies(u, []*http.Cookie{ck})
		}
	}
	return err
}

// Refresh confirms the session and reports whether a new access token was
// minted from the refresh cookie.
func (c *Client) Refresh(ctx context.Context) (*RefreshResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", nil, "")
	if err != nil {
		return nil, err
	}
	var out RefreshResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*UserResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/profile", nil, "")
	if err != nil {
		return nil, err
	}
	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PublicProfile(ctx context.Context, userID string) (*PublicProfileResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil, "")
	if err != nil {
		return nil, err
	}
	var out PublicProfileResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
