package blogsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// do sends a request with the current access token and records any token
// the service returns.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if h := resp.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		c.SetAccessToken(strings.TrimPrefix(h, "Bearer "))
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any) (*http.Response, error) {
	if in == nil {
		return c.do(ctx, method, path, nil, "")
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(b), "application/json")
}

func (c *Client) doMultipart(ctx context.Context, method, path string, p PostRequest) (*http.Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for name, value := range map[string]string{"title": p.Title, "summary": p.Summary, "content": p.Content} {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
	}
	if p.Cover != nil {
		name := p.CoverName
		if name == "" {
			name = "cover"
		}
		fw, err := mw.CreateFormFile("file", name)
		if err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
		if _, err := fw.Write(p.Cover); err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	return c.do(ctx, method, path, &buf, mw.FormDataContentType())
}

// decodeJSON decodes a successful response into target, or returns an
// *APIError when the status is not the expected one.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkStatus discards the body of a response that carries none.
func checkStatus(resp *http.Response, expectedStatus int) error {
	return decodeJSON(resp, nil, expectedStatus)
}
