package mongo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/aussiebroadwan/blogd/internal/blog/store"
	"github.com/aussiebroadwan/blogd/internal/blog/store/drivers/mongo"
	"github.com/aussiebroadwan/blogd/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startMongo runs a throwaway mongod and returns its URL.
func startMongo(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("mongo driver tests need docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func TestMongoStore(t *testing.T) {
	url := startMongo(t)

	var n int
	newStore := func(t *testing.T) *mongo.Store {
		t.Helper()
		n++
		s, err := mongo.NewStore(context.Background(), mongo.Config{
			URL:           url,
			Database:      fmt.Sprintf("blog_test_%d", n),
			RetryAttempts: 5,
			RetryInterval: time.Second,
		})
		require.NoError(t, err)
		require.NoError(t, s.ApplyMigrations())
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("users", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		alice := createUser(t, s, "alice")

		got, err := s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		dup := alice
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

		require.NoError(t, s.Users().UpdatePasswordHash(ctx, alice.ID, "new-hash"))
		got, err = s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)

		_, err = s.Users().GetUserByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("posts and cascade", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		alice := createUser(t, s, "alice")
		bob := createUser(t, s, "bob")

		first := createPost(t, s, alice, "first")
		second := createPost(t, s, alice, "second")

		recent, err := s.Posts().ListRecentPosts(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		require.Equal(t, second.ID, recent[0].ID)
		require.Equal(t, "alice", recent[0].Author.Username)

		first.Title = "edited"
		require.NoError(t, s.Posts().UpdatePost(ctx, first))
		view, err := s.Posts().GetPost(ctx, first.ID)
		require.NoError(t, err)
		require.Equal(t, "edited", view.Title)

		c := domain.Comment{ID: idx.New().String(), PostID: first.ID, AuthorID: bob.ID, Content: "hi", CreatedAt: time.Now()}
		require.NoError(t, s.Comments().CreateComment(ctx, c))
		require.NoError(t, s.Favorites().AddFavorite(ctx, bob.ID, first.ID))
		require.NoError(t, s.Favorites().AddFavorite(ctx, bob.ID, first.ID))

		favs, err := s.Favorites().ListFavorites(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, favs, 1)

		deleted, err := s.Posts().DeletePost(ctx, first.ID)
		require.NoError(t, err)
		require.Equal(t, "edited", deleted.Title)

		_, err = s.Comments().GetComment(ctx, c.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		favs, err = s.Favorites().ListFavorites(ctx, bob.ID)
		require.NoError(t, err)
		require.Empty(t, favs)

		_, err = s.Posts().DeletePost(ctx, first.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("comments", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		alice := createUser(t, s, "alice")
		post := createPost(t, s, alice, "post")

		orphan := domain.Comment{ID: idx.New().String(), PostID: "missing", AuthorID: alice.ID, Content: "x", CreatedAt: time.Now()}
		require.ErrorIs(t, s.Comments().CreateComment(ctx, orphan), store.ErrNotFound)

		var ids []string
		for range 3 {
			c := domain.Comment{ID: idx.New().String(), PostID: post.ID, AuthorID: alice.ID, Content: "x", CreatedAt: time.Now()}
			require.NoError(t, s.Comments().CreateComment(ctx, c))
			ids = append(ids, c.ID)
		}

		list, err := s.Comments().ListCommentsForPost(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, c := range list {
			require.Equal(t, ids[i], c.ID)
			require.Equal(t, "alice", c.Author.Username)
		}

		require.NoError(t, s.Comments().DeleteComment(ctx, ids[0]))
		require.ErrorIs(t, s.Comments().DeleteComment(ctx, ids[0]), store.ErrNotFound)
	})

	t.Run("bios", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		alice := createUser(t, s, "alice")

		_, err := s.Bios().GetBio(ctx, alice.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.Bios().UpsertBio(ctx, domain.Bio{UserID: alice.ID, Content: "one", UpdatedAt: time.Now()}))
		require.NoError(t, s.Bios().UpsertBio(ctx, domain.Bio{UserID: alice.ID, Content: "two", UpdatedAt: time.Now()}))

		bio, err := s.Bios().GetBio(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "two", bio.Content)
	})

	t.Run("revocations", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		now := time.Now()

		require.NoError(t, s.Revocations().RevokeToken(ctx, domain.RevokedToken{JTI: "a", ExpiresAt: now.Add(time.Hour)}))
		require.NoError(t, s.Revocations().RevokeToken(ctx, domain.RevokedToken{JTI: "a", ExpiresAt: now.Add(time.Minute)}))
		require.NoError(t, s.Revocations().RevokeToken(ctx, domain.RevokedToken{JTI: "b", ExpiresAt: now.Add(-time.Minute)}))

		revoked, err := s.Revocations().IsTokenRevoked(ctx, "a", now.Add(30*time.Minute))
		require.NoError(t, err)
		require.True(t, revoked, "later expiry must win")

		revoked, err = s.Revocations().IsTokenRevoked(ctx, "b", now)
		require.NoError(t, err)
		require.False(t, revoked)

		_, err = s.Revocations().DeleteExpired(ctx, now)
		require.NoError(t, err)
	})
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
