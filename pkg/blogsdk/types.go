package blogsdk

import "time"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ============================================================================
// Health
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each dependency as "ok", "disabled" or "error: ...".
type HealthChecks struct {
	Database   string `json:"database"`
	Revocation string `json:"revocation"`
}

// ============================================================================
// Accounts
// ============================================================================

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse identifies a user. It is also the author of posts and
// comments.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RefreshResponse is returned by POST /v1/auth/refresh. AccessToken and
// ExpiresAt are only set when a new access token was minted.
type RefreshResponse struct {
	UserResponse
	Renewed     bool       `json:"renewed"`
	AccessToken string     `json:"access_token,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type PublicProfileResponse struct {
	UserResponse
	Bio string `json:"bio"`
}

// ============================================================================
// Posts
// ============================================================================

// PostRequest is the multipart form of create and update. Cover is
// optional; on update a missing cover keeps the current one.
type PostRequest struct {
	Title   string
	Summary string
	Content string

	CoverName string
	Cover     []byte
}

type PostResponse struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Summary   string       `json:"summary"`
	Content   string       `json:"content"`
	CoverURL  string       `json:"cover_url"`
	Author    UserResponse `json:"author"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type PostListResponse struct {
	Posts []PostResponse `json:"posts"`
}

// ============================================================================
// Comments, bios and favorites
// ============================================================================

type CommentRequest struct {
	Content string `json:"content"`
}

type CommentResponse struct {
	ID        string       `json:"id"`
	PostID    string       `json:"post_id"`
	Content   string       `json:"content"`
	Author    UserResponse `json:"author"`
	CreatedAt time.Time    `json:"created_at"`
}

type CommentListResponse struct {
	Comments []CommentResponse `json:"comments"`
}

type BioRequest struct {
	Content string `json:"content"`
}

type BioResponse struct {
	Content   string     `json:"content"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
