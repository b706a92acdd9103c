package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/service"
	"github.com/aussiebroadwan/blogd/internal/blog/store"
	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/aussiebroadwan/blogd/pkg/httpx"
	"github.com/aussiebroadwan/blogd/pkg/media"
	"github.com/aussiebroadwan/blogd/pkg/otelx"
	"github.com/aussiebroadwan/blogd/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/blogd/api/blog" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits are the profiles applied per route group.
type RateLimits struct {
	Auth  httpx.RateLimitConfig
	Write httpx.RateLimitConfig
	Read  httpx.RateLimitConfig
}

// DefaultRateLimits reads the RATELIMIT_* overrides on top of the built-in
// profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Auth:  httpx.ParseRateLimitFromEnv(httpx.AuthLimit),
		Write: httpx.ParseRateLimitFromEnv(httpx.WriteLimit),
		Read:  httpx.ParseRateLimitFromEnv(httpx.ReadLimit),
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	authn *authn.Authenticator
	media media.Stager

	// MediaHandler serves committed uploads under /media/. Only the disk
	// driver sets it; S3 objects are fetched from the bucket.
	MediaHandler    http.Handler
	DefaultCoverURL string
	MaxUploadBytes  int64
	Limits          RateLimits

	// RevocationCheck is probed by /readyz. Nil reports "disabled".
	RevocationCheck func(ctx context.Context) error

	AccountService  *service.AccountService
	PostService     *service.PostService
	CommentService  *service.CommentService
	BioService      *service.BioService
	FavoriteService *service.FavoriteService
}

func NewRouter(
	st store.Store,
	authenticator *authn.Authenticator,
	stager media.Stager,
	serviceName, buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:            http.NewServeMux(),
		buildVersion:   buildVersion,
		startTime:      time.Now(),
		logger:         logger,
		store:          st,
		authn:          authenticator,
		media:          stager,
		MaxUploadBytes: httpx.DefaultMaxUploadBytes,
		Limits: RateLimits{
			Auth:  httpx.AuthLimit,
			Write: httpx.WriteLimit,
			Read:  httpx.ReadLimit,
		},
	}

	// Tracing wraps logging so request logs carry the span ids.
	r.middlewares = []httpx.Middleware{
		otelx.Middleware(serviceName),
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerPosts()
	r.registerComments()
	r.registerFavorites()
	r.registerMedia()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Blog API
//	@version		0.1.0
//	@description	Posts, comments, bios and favorites behind a cookie or bearer session.
//	@description
//	@description	Login sets an access token (cookie "authorization" and the Authorization response header)
//	@description	and an HttpOnly refresh cookie "refreshToken". Expired access tokens are renewed silently
//	@description	from the refresh token on any guarded route.
//
//	@contact.name	AussieBroadWAN Team
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// guarded wraps h with the session guard and a per-user rate limit.
func (r *Router) guarded(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.Guard(r.authn),
		httpx.RateLimitByUser(limit),
	)
}

// guardedUpload also stages the "file" field. The guard runs first so
// unauthenticated bodies are never staged.
func (r *Router) guardedUpload(h http.Handler) http.Handler {
	return httpx.Chain(h,
		httpx.Guard(r.authn),
		httpx.RateLimitByUser(r.Limits.Write),
		httpx.StageUpload(r.media, "file", r.MaxUploadBytes),
	)
}

func (r *Router) public(h http.Handler) http.Handler {
	return httpx.Chain(h, httpx.RateLimitByIP(r.Limits.Read))
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AccountService: r.AccountService, Authenticator: r.authn}

	// Login is limited per IP and username to slow down guessing.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister), httpx.RateLimitByIP(r.Limits.Auth)))
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin), httpx.RateLimitByIPAndField(r.Limits.Auth, "username")))
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout), httpx.RateLimitByIP(r.Limits.Auth)))
	r.Mux.Handle("POST /v1/auth/refresh", r.guarded(http.HandlerFunc(h.HandleRefresh), r.Limits.Auth))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{AccountService: r.AccountService, BioService: r.BioService}

	r.Mux.Handle("GET /v1/profile", r.guarded(http.HandlerFunc(h.HandleProfile), r.Limits.Read))
	r.Mux.Handle("GET /v1/users/{id}", r.public(http.HandlerFunc(h.HandlePublicProfile)))
	r.Mux.Handle("GET /v1/bio", r.guarded(http.HandlerFunc(h.HandleGetBio), r.Limits.Read))
	r.Mux.Handle("PUT /v1/bio", r.guarded(http.HandlerFunc(h.HandlePutBio), r.Limits.Write))
}

func (r *Router) registerPosts() {
	h := &PostsHandler{PostService: r.PostService, views: r.views()}

	r.Mux.Handle("GET /v1/posts", r.public(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("GET /v1/posts/{id}", r.public(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("POST /v1/posts", r.guardedUpload(http.HandlerFunc(h.HandleCreate)))
	r.Mux.Handle("PUT /v1/posts/{id}", r.guardedUpload(http.HandlerFunc(h.HandleUpdate)))
	r.Mux.Handle("DELETE /v1/posts/{id}", r.guarded(http.HandlerFunc(h.HandleDelete), r.Limits.Write))
}

func (r *Router) registerComments() {
	h := &CommentsHandler{CommentService: r.CommentService}

	r.Mux.Handle("GET /v1/posts/{id}/comments", r.public(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("POST /v1/posts/{id}/comments", r.guarded(http.HandlerFunc(h.HandleCreate), r.Limits.Write))
	r.Mux.Handle("DELETE /v1/comments/{id}", r.guarded(http.HandlerFunc(h.HandleDelete), r.Limits.Write))
}

func (r *Router) registerFavorites() {
	h := &FavoritesHandler{FavoriteService: r.FavoriteService, views: r.views()}

	r.Mux.Handle("GET /v1/favorites", r.guarded(http.HandlerFunc(h.HandleList), r.Limits.Read))
	r.Mux.Handle("PUT /v1/favorites/{postID}", r.guarded(http.HandlerFunc(h.HandleAdd), r.Limits.Write))
	r.Mux.Handle("DELETE /v1/favorites/{postID}", r.guarded(http.HandlerFunc(h.HandleRemove), r.Limits.Write))
}

func (r *Router) registerMedia() {
	if r.MediaHandler == nil {
		return
	}
	r.Mux.Handle("GET /media/{key}", r.public(r.MediaHandler))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", r.public(LivezHandler(r.startTime, r.buildVersion)))
	r.Mux.Handle("GET /readyz", r.public(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.RevocationCheck)))
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}

func (r *Router) views() viewBuilder {
	return viewBuilder{media: r.media, defaultCover: r.DefaultCoverURL}
}
