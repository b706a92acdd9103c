package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. The sqlite and mongo drivers
// implement it. Deleting a post also removes its comments and favorites;
// sqlite does this in one transaction, mongo removes the post first.
type Store interface {
	Users() Users
	Posts() Posts
	Comments() Comments
	Bios() Bios
	Favorites() Favorites
	Revocations() Revocations

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user. ErrAlreadyExists if the username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

type Posts interface {
	CreatePost(ctx context.Context, p domain.Post) error

	// GetPost returns the post joined with its author.
	GetPost(ctx context.Context, id string) (domain.PostView, error)

	// ListRecentPosts returns at most limit posts, newest first.
	ListRecentPosts(ctx context.Context, limit int) ([]domain.PostView, error)

	// UpdatePost overwrites title, summary, content and cover, and bumps
	// updated_at.
	UpdatePost(ctx context.Context, p domain.Post) error

	// DeletePost removes the post with its comments and favorites, and
	// returns the deleted row so callers can clean up its cover.
	DeletePost(ctx context.Context, id string) (domain.Post, error)
}

type Comments interface {
	// CreateComment inserts a comment. ErrNotFound if the post does not exist.
	CreateComment(ctx context.Context, c domain.Comment) error

	GetComment(ctx context.Context, id string) (domain.Comment, error)

	// ListCommentsForPost returns comments oldest first.
	ListCommentsForPost(ctx context.Context, postID string) ([]domain.CommentView, error)

	DeleteComment(ctx context.Context, id string) error
}

type Bios interface {
	GetBio(ctx context.Context, userID string) (domain.Bio, error)

	// UpsertBio creates or replaces the user's bio.
	UpsertBio(ctx context.Context, b domain.Bio) error
}

type Favorites interface {
	// AddFavorite is idempotent. ErrNotFound if the post does not exist.
	AddFavorite(ctx context.Context, userID, postID string) error

	// RemoveFavorite is idempotent.
	RemoveFavorite(ctx context.Context, userID, postID string) error

	// ListFavorites returns the user's favorite posts, most recently added
	// first.
	ListFavorites(ctx context.Context, userID string) ([]domain.PostView, error)
}

type Revocations interface {
	// RevokeToken records jti until expiresAt. Revoking twice keeps the
	// later expiry.
	RevokeToken(ctx context.Context, t domain.RevokedToken) error

	// IsTokenRevoked reports whether jti is revoked and not yet past its
	// expiry at now.
	IsTokenRevoked(ctx context.Context, jti string, now time.Time) (bool, error)

	// DeleteExpired purges entries that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
