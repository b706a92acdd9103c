package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/blogd/internal/blog/http"
	"github.com/aussiebroadwan/blogd/internal/blog/revocation"
	"github.com/aussiebroadwan/blogd/internal/blog/service"
	"github.com/aussiebroadwan/blogd/internal/blog/store"
	"github.com/aussiebroadwan/blogd/internal/blog/store/drivers/mongo"
	"github.com/aussiebroadwan/blogd/internal/blog/store/drivers/sqlite"
	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/aussiebroadwan/blogd/pkg/cryptox"
	"github.com/aussiebroadwan/blogd/pkg/media"
	"github.com/aussiebroadwan/blogd/pkg/otelx"
	"github.com/aussiebroadwan/blogd/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

const ServiceName = "blog-service"

// BuildVersion is overridden at build time with -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application owns every long-lived dependency of the blog service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	tracing *otelx.Provider

	db      store.Store
	redis   *redis.Client
	stager  media.Stager
	disk    *media.Disk
	revoker authn.Revoker
	issuer  *authn.Issuer

	accountService      *service.AccountService
	postService         *service.PostService
	commentService      *service.CommentService
	bioService          *service.BioService
	favoriteService     *service.FavoriteService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New builds the application. Nothing is served until Run.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: ServiceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.Auth.EphemeralSecrets {
		app.logger.Warn("AUTH_ACCESS_SECRET or AUTH_REFRESH_SECRET not set; using ephemeral secrets, sessions will not survive a restart")
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	tracing, err := otelx.Setup(ctx, otelx.Config{
		Enable:      cfg.Otel.Enabled,
		Endpoint:    cfg.Otel.Endpoint,
		ServiceName: ServiceName,
		Version:     BuildVersion,
		SampleRatio: cfg.Otel.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.tracing = tracing

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initRevocation(ctx); err != nil {
		app.closeResources()
		return nil, err
	}
	if err := app.initMedia(ctx); err != nil {
		app.closeResources()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.closeResources()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run serves until SIGINT/SIGTERM or a server error.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("blog service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"media", app.cfg.Media.Driver,
		"revocation", app.cfg.RevocationBackend,
		"tracing", app.tracing.Enabled(),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeResources()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and releases every resource.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down blog service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.tracing.Shutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
	}

	if err := app.closeResources(); err != nil {
		return err
	}

	app.logger.Info("blog service stopped")
	return nil
}

func (app *Application) closeResources() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (app *Application) initDatabase(ctx context.Context) error {
	switch app.cfg.StoreDriver {
	case StoreMongo:
		db, err := mongo.NewStore(ctx, mongo.Config{
			URL:      app.cfg.Mongo.URL,
			Database: app.cfg.Mongo.Database,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		app.db = db
	default:
		db, err := sqlite.NewStore(app.cfg.DatabaseFile)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.StoreDriver)
	return nil
}

// initRevocation leaves revoker nil for REVOCATION_BACKEND=none.
func (app *Application) initRevocation(ctx context.Context) error {
	switch app.cfg.RevocationBackend {
	case revocation.BackendStore:
		app.revoker = revocation.NewStore(app.db.Revocations(), time.Now)
	case revocation.BackendRedis:
		client, err := revocation.OpenRedis(ctx, app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redis = client
		app.revoker = revocation.NewRedis(client, revocation.DefaultRedisPrefix, time.Now)
	default:
		app.logger.Warn("token revocation disabled; logout only clears cookies")
	}
	return nil
}

func (app *Application) initMedia(ctx context.Context) error {
	if app.cfg.Media.Driver == MediaS3 {
		s3, err := media.NewS3(ctx, media.S3Config{
			Bucket:         app.cfg.S3.Bucket,
			Region:         app.cfg.S3.Region,
			Endpoint:       app.cfg.S3.Endpoint,
			AccessKeyID:    app.cfg.S3.AccessKeyID,
			SecretKey:      app.cfg.S3.SecretAccessKey,
			ForcePathStyle: app.cfg.S3.ForcePathStyle,
			BaseURL:        app.cfg.S3.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize s3 media: %w", err)
		}
		app.stager = s3
		return nil
	}

	disk, err := media.NewDisk(app.cfg.Media.Dir, app.cfg.Media.URLPrefix)
	if err != nil {
		return fmt.Errorf("failed to initialize media directory: %w", err)
	}
	app.disk = disk
	app.stager = disk
	return nil
}

func (app *Application) initServices() error {
	sessionCfg, err := app.cfg.Auth.Session()
	if err != nil {
		return fmt.Errorf("invalid session configuration: %w", err)
	}
	issuer, err := authn.NewIssuer(sessionCfg, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	app.issuer = issuer

	app.accountService = &service.AccountService{Store: app.db, Issuer: issuer}
	app.postService = &service.PostService{Store: app.db, Media: app.stager}
	app.commentService = &service.CommentService{Store: app.db}
	app.bioService = &service.BioService{Store: app.db}
	app.favoriteService = &service.FavoriteService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.stager,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.Media.StagingMaxAge,
	)
	return nil
}

func (app *Application) initHTTP() {
	var opts []authn.Option
	if app.revoker != nil {
		opts = append(opts, authn.WithRevoker(app.revoker))
	}
	authenticator := authn.NewAuthenticator(app.issuer, opts...)

	router := httpapi.NewRouter(app.db, authenticator, app.stager, ServiceName, BuildVersion, app.logger)
	router.DefaultCoverURL = app.cfg.Media.DefaultCoverURL
	router.MaxUploadBytes = app.cfg.Media.MaxUploadBytes
	router.Limits = httpapi.DefaultRateLimits()
	if app.disk != nil {
		router.MediaHandler = app.disk.Handler()
	}
	switch {
	case app.redis != nil:
		router.RevocationCheck = func(ctx context.Context) error { return app.redis.Ping(ctx).Err() }
	case app.revoker != nil:
		router.RevocationCheck = app.db.Ping
	}

	router.AccountService = app.accountService
	router.PostService = app.postService
	router.CommentService = app.commentService
	router.BioService = app.bioService
	router.FavoriteService = app.favoriteService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
