package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/aussiebroadwan/blogd/internal/blog/store"
	"github.com/aussiebroadwan/blogd/internal/blog/store/drivers/sqlite"
	"github.com/aussiebroadwan/blogd/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createUser(t *testing.T, s store.Store, username string) domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := domain.User{ID: idx.New().String(), Username: username, PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func createPost(t *testing.T, s store.Store, author domain.User, title string) domain.Post {
	t.Helper()
	now := time.Now().UTC()
	p := domain.Post{
		ID: idx.NewAt(now).String(), AuthorID: author.ID, Title: title, Content: "body",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.Posts().CreatePost(context.Background(), p))
	return p
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	alice := createUser(t, s, "alice")

	got, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
	require.WithinDuration(t, alice.CreatedAt, got.CreatedAt, time.Millisecond)

	_, err = s.Users().GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := alice
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	require.NoError(t, s.Users().UpdatePasswordHash(ctx, alice.ID, "new-hash"))
	got, err = s.Users().GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)

	require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, "missing", "x"), store.ErrNotFound)
}

func TestPosts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := createUser(t, s, "alice")

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		ids = append(ids, createPost(t, s, alice, title).ID)
	}

	recent, err := s.Posts().ListRecentPosts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, ids[2], recent[0].ID)
	require.Equal(t, ids[1], recent[1].ID)
	require.Equal(t, "alice", recent[0].Author.Username)

	p, err := s.Posts().GetPost(ctx, ids[0])
	require.NoError(t, err)
	p.Title, p.Cover = "edited", "cover.png"
	require.NoError(t, s.Posts().UpdatePost(ctx, p.Post))

	got, err := s.Posts().GetPost(ctx, ids[0])
	require.NoError(t, err)
	require.Equal(t, "edited", got.Title)
	require.Equal(t, "cover.png", got.Cover)
	require.False(t, got.UpdatedAt.Before(got.CreatedAt))

	_, err = s.Posts().GetPost(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Posts().UpdatePost(ctx, domain.Post{ID: "missing"}), store.ErrNotFound)

	// Unknown author violates the foreign key.
	err = s.Posts().CreatePost(ctx, domain.Post{ID: idx.New().String(), AuthorID: "ghost", Title: "t", Content: "c"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeletePostCascades(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bobby")
	post := createPost(t, s, alice, "doomed")
	post.Cover = "cover.png"
	require.NoError(t, s.Posts().UpdatePost(ctx, post))

	c := domain.Comment{ID: idx.New().String(), PostID: post.ID, AuthorID: bob.ID, Content: "nice", CreatedAt: time.Now()}
	require.NoError(t, s.Comments().CreateComment(ctx, c))
	require.NoError(t, s.Favorites().AddFavorite(ctx, bob.ID, post.ID))

	deleted, err := s.Posts().DeletePost(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, "cover.png", deleted.Cover)

	_, err = s.Comments().GetComment(ctx, c.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	favs, err := s.Favorites().ListFavorites(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, favs)

	_, err = s.Posts().DeletePost(ctx, post.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := createUser(t, s, "alice")
	post := createPost(t, s, alice, "post")

	first := domain.Comment{ID: idx.New().String(), PostID: post.ID, AuthorID: alice.ID, Content: "one", CreatedAt: time.Now()}
	second := domain.Comment{ID: idx.New().String(), PostID: post.ID, AuthorID: alice.ID, Content: "two", CreatedAt: time.Now()}
	require.NoError(t, s.Comments().CreateComment(ctx, first))
	require.NoError(t, s.Comments().CreateComment(ctx, second))

	list, err := s.Comments().ListCommentsForPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "one", list[0].Content)
	require.Equal(t, "alice", list[1].Author.Username)

	orphan := domain.Comment{ID: idx.New().String(), PostID: "missing", AuthorID: alice.ID, Content: "x", CreatedAt: time.Now()}
	require.ErrorIs(t, s.Comments().CreateComment(ctx, orphan), store.ErrNotFound)

	require.NoError(t, s.Comments().DeleteComment(ctx, first.ID))
	require.ErrorIs(t, s.Comments().DeleteComment(ctx, first.ID), store.ErrNotFound)
}

func TestBios(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := createUser(t, s, "alice")

	_, err := s.Bios().GetBio(ctx, alice.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Bios().UpsertBio(ctx, domain.Bio{UserID: alice.ID, Content: "hello", UpdatedAt: time.Now()}))
	require.NoError(t, s.Bios().UpsertBio(ctx, domain.Bio{UserID: alice.ID, Content: "updated", UpdatedAt: time.Now()}))

	b, err := s.Bios().GetBio(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "updated", b.Content)
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := createUser(t, s, "alice")
	p1 := createPost(t, s, alice, "one")
	p2 := createPost(t, s, alice, "two")

	require.NoError(t, s.Favorites().AddFavorite(ctx, alice.ID, p1.ID))
	require.NoError(t, s.Favorites().AddFavorite(ctx, alice.ID, p1.ID))
	require.NoError(t, s.Favorites().AddFavorite(ctx, alice.ID, p2.ID))
	require.ErrorIs(t, s.Favorites().AddFavorite(ctx, alice.ID, "missing"), store.ErrNotFound)

	favs, err := s.Favorites().ListFavorites(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, favs, 2)

	require.NoError(t, s.Favorites().RemoveFavorite(ctx, alice.ID, p1.ID))
	require.NoError(t, s.Favorites().RemoveFavorite(ctx, alice.ID, p1.ID))

	favs, err = s.Favorites().ListFavorites(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	require.Equal(t, p2.ID, favs[0].ID)
}

func TestRevocations(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now()

	require.NoError(t, s.Revocations().RevokeToken(ctx, domain.RevokedToken{JTI: "j1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, s.Revocations().RevokeToken(ctx, domain.RevokedToken{JTI: "j2", ExpiresAt: now.Add(-time.Minute)}))
	// A shorter expiry never shortens an existing entry.
	require.NoError(t, s.Revocations().RevokeToken(ctx, domain.RevokedToken{JTI: "j1", ExpiresAt: now.Add(time.Minute)}))

	revoked, err := s.Revocations().IsTokenRevoked(ctx, "j1", now.Add(30*time.Minute))
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = s.Revocations().IsTokenRevoked(ctx, "j2", now)
	require.NoError(t, err)
	require.False(t, revoked)

	revoked, err = s.Revocations().IsTokenRevoked(ctx, "unknown", now)
	require.NoError(t, err)
	require.False(t, revoked)

	n, err := s.Revocations().DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
