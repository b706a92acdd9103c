package http_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	bloghttp "github.com/aussiebroadwan/blogd/internal/blog/http"
	"github.com/aussiebroadwan/blogd/internal/blog/revocation"
	"github.com/aussiebroadwan/blogd/internal/blog/service"
	"github.com/aussiebroadwan/blogd/internal/blog/store/drivers/sqlite"
	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/aussiebroadwan/blogd/pkg/blogsdk"
	"github.com/aussiebroadwan/blogd/pkg/cryptox"
	"github.com/aussiebroadwan/blogd/pkg/httpx"
	"github.com/aussiebroadwan/blogd/pkg/jwtx"
	"github.com/aussiebroadwan/blogd/pkg/media"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "blog-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type server struct {
	url      string
	clock    *clock
	mediaDir string
}

func newServer(t *testing.T) *server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	dir := t.TempDir()
	disk, err := media.NewDisk(dir, "/media")
	require.NoError(t, err)

	c := &clock{t: time.Now()}
	cfg := authn.DefaultConfig()
	cfg.AccessSecret = []byte("access-secret-0123456789abcdefghijklmnop")
	cfg.RefreshSecret = []byte("refresh-secret-0123456789abcdefghijklmno")
	cfg.Cookie.Secure = false
	codec := jwtx.NewCodec(cfg.Issuer)
	codec.Now = c.Now

	issuer, err := authn.NewIssuer(cfg, codec)
	require.NoError(t, err)
	authenticator := authn.NewAuthenticator(issuer,
		authn.WithRevoker(revocation.NewStore(st.Revocations(), c.Now)))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := bloghttp.NewRouter(st, authenticator, disk, "blog-test", "test", logger)
	router.MediaHandler = disk.Handler()
	router.DefaultCoverURL = "/static/default-cover.png"
	open := httpx.RateLimitConfig{Name: "test", RequestsPerWindow: 10_000, Window: time.Minute, Burst: 10_000}
	router.Limits = bloghttp.RateLimits{Auth: open, Write: open, Read: open}

	router.AccountService = &service.AccountService{Store: st, Issuer: issuer}
	router.PostService = &service.PostService{Store: st, Media: disk}
	router.CommentService = &service.CommentService{Store: st}
	router.BioService = &service.BioService{Store: st}
	router.FavoriteService = &service.FavoriteService{Store: st}
	router.ApplyRoutes()

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &server{url: ts.URL, clock: c, mediaDir: dir}
}

func (s *server) client(t *testing.T) *blogsdk.Client {
	t.Helper()
	c, err := blogsdk.NewClient(s.url)
	require.NoError(t, err)
	return c
}

// loggedIn registers username and returns a client holding its session.
func (s *server) loggedIn(t *testing.T, username string) (*blogsdk.Client, *blogsdk.UserResponse) {
	t.Helper()
	ctx := context.Background()
	c := s.client(t)
	_, err := c.Register(ctx, username, "correct horse")
	require.NoError(t, err)
	u, err := c.Login(ctx, username, "correct horse")
	require.NoError(t, err)
	return c, u
}

func (s *server) staged(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(s.mediaDir, ".staging"))
	require.NoError(t, err)
	return entries
}

func requireCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *blogsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	c := s.client(t)

	u, err := c.Register(ctx, "alice", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)

	_, err = c.Register(ctx, "alice", "correct horse")
	requireCode(t, err, http.StatusConflict, blogsdk.ErrorCodeUsernameTaken)
	_, err = c.Register(ctx, "al", "correct horse")
	requireCode(t, err, http.StatusBadRequest, blogsdk.ErrorCodeInvalidRequest)

	_, err = c.Login(ctx, "alice", "wrong horse")
	requireCode(t, err, http.StatusBadRequest, blogsdk.ErrorCodeInvalidCredentials)

	_, err = c.Profile(ctx)
	requireCode(t, err, http.StatusUnauthorized, blogsdk.ErrorCodeNoTokenProvided)

	_, err = c.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, c.AccessToken())

	me, err := c.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, u.ID, me.ID)

	_, err = c.UpdateBio(ctx, "writes about Go")
	require.NoError(t, err)
	public, err := s.client(t).PublicProfile(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", public.Username)
	require.Equal(t, "writes about Go", public.Bio)
}

func TestSessionRenewal(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	c, alice := s.loggedIn(t, "alice")
	first := c.AccessToken()

	res, err := c.Refresh(ctx)
	require.NoError(t, err)
	require.False(t, res.Renewed)

	s.clock.Advance(2 * time.Hour)
	res, err = c.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, res.Renewed)
	require.Equal(t, alice.ID, res.ID)
	require.NotEqual(t, first, res.AccessToken)
	require.Equal(t, res.AccessToken, c.AccessToken())
	require.WithinDuration(t, s.clock.Now().Add(time.Hour), *res.ExpiresAt, time.Second)

	s.clock.Advance(25 * time.Hour)
	_, err = c.Refresh(ctx)
	requireCode(t, err, http.StatusBadRequest, blogsdk.ErrorCodeInvalidRefreshToken)
}

func TestLogoutRevokesTokens(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	c, _ := s.loggedIn(t, "alice")
	token := c.AccessToken()

	require.NoError(t, c.Logout(ctx))
	_, err := c.Profile(ctx)
	requireCode(t, err, http.StatusUnauthorized, blogsdk.ErrorCodeNoTokenProvided)

	// Replaying the old access token fails even though it has not expired.
	c.SetAccessToken(token)
	_, err = c.Profile(ctx)
	requireCode(t, err, http.StatusUnauthorized, blogsdk.ErrorCodeNoRefreshToken)
}

func TestPosts(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	alice, aliceUser := s.loggedIn(t, "alice")
	bob, _ := s.loggedIn(t, "bobby")

	p, err := alice.CreatePost(ctx, blogsdk.PostRequest{
		Title: "Hello", Summary: "first", Content: "body",
		CoverName: "cover.png", Cover: []byte("png bytes"),
	})
	require.NoError(t, err)
	require.Equal(t, aliceUser.ID, p.Author.ID)
	require.True(t, strings.HasPrefix(p.CoverURL, "/media/"), p.CoverURL)
	require.Empty(t, s.staged(t))

	resp, err := http.Get(s.url + p.CoverURL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "png bytes", string(body))

	plain, err := alice.CreatePost(ctx, blogsdk.PostRequest{Title: "No cover", Content: "body"})
	require.NoError(t, err)
	require.Equal(t, "/static/default-cover.png", plain.CoverURL)

	list, err := s.client(t).ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, plain.ID, list[0].ID)

	t.Run("non-author update is rejected and its upload discarded", func(t *testing.T) {
		_, err := bob.UpdatePost(ctx, p.ID, blogsdk.PostRequest{
			Title: "Mine", Content: "x", CoverName: "evil.png", Cover: []byte("evil"),
		})
		requireCode(t, err, http.StatusForbidden, blogsdk.ErrorCodeForbidden)
		require.Empty(t, s.staged(t))
	})

	t.Run("invalid post discards upload", func(t *testing.T) {
		_, err := alice.CreatePost(ctx, blogsdk.PostRequest{Content: "x", CoverName: "c.png", Cover: []byte("c")})
		requireCode(t, err, http.StatusBadRequest, blogsdk.ErrorCodeInvalidRequest)
		require.Empty(t, s.staged(t))
	})

	t.Run("anonymous upload is never staged", func(t *testing.T) {
		_, err := s.client(t).CreatePost(ctx, blogsdk.PostRequest{Title: "t", Content: "x", CoverName: "c.png", Cover: []byte("c")})
		requireCode(t, err, http.StatusUnauthorized, blogsdk.ErrorCodeNoTokenProvided)
		require.Empty(t, s.staged(t))
	})

	t.Run("update keeps cover without file", func(t *testing.T) {
		updated, err := alice.UpdatePost(ctx, p.ID, blogsdk.PostRequest{Title: "Hello again", Content: "body"})
		require.NoError(t, err)
		require.Equal(t, "Hello again", updated.Title)
		require.Equal(t, p.CoverURL, updated.CoverURL)
	})

	t.Run("comments", func(t *testing.T) {
		cm, err := bob.AddComment(ctx, p.ID, "nice")
		require.NoError(t, err)
		require.Equal(t, "bobby", cm.Author.Username)

		comments, err := s.client(t).ListComments(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, comments, 1)

		requireCode(t, alice.DeleteComment(ctx, cm.ID), http.StatusForbidden, blogsdk.ErrorCodeForbidden)
		require.NoError(t, bob.DeleteComment(ctx, cm.ID))

		_, err = bob.AddComment(ctx, "missing", "hi")
		requireCode(t, err, http.StatusNotFound, blogsdk.ErrorCodeNotFound)
	})

	t.Run("favorites", func(t *testing.T) {
		require.NoError(t, bob.AddFavorite(ctx, p.ID))
		require.NoError(t, bob.AddFavorite(ctx, p.ID))
		favs, err := bob.ListFavorites(ctx)
		require.NoError(t, err)
		require.Len(t, favs, 1)
		require.Equal(t, p.ID, favs[0].ID)

		requireCode(t, bob.AddFavorite(ctx, "missing"), http.StatusNotFound, blogsdk.ErrorCodeNotFound)
		require.NoError(t, bob.RemoveFavorite(ctx, p.ID))
	})

	t.Run("delete", func(t *testing.T) {
		requireCode(t, bob.DeletePost(ctx, p.ID), http.StatusForbidden, blogsdk.ErrorCodeForbidden)
		require.NoError(t, alice.DeletePost(ctx, p.ID))

		_, err := s.client(t).GetPost(ctx, p.ID)
		requireCode(t, err, http.StatusNotFound, blogsdk.ErrorCodeNotFound)

		resp, err := http.Get(s.url + p.CoverURL)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSystemEndpoints(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	c := s.client(t)

	live, err := c.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := c.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "disabled", ready.Checks.Revocation)

	resp, err := http.Get(s.url + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "blog_authn_renewals_total")

	resp, err = http.Get(s.url + "/livez")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
