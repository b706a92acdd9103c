package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/revocation"
	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/aussiebroadwan/blogd/pkg/cryptox"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"

	MediaDisk = "disk"
	MediaS3   = "s3"
)

type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
	PepperFile           string        `env:"PEPPER_FILE" envDefault:"pepper"`

	StoreDriver  string      `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseFile string      `env:"DATABASE_FILE" envDefault:"blog.db"`
	Mongo        MongoConfig `envPrefix:"MONGODB_"`

	Media MediaConfig `envPrefix:"MEDIA_"`
	S3    S3Config    `envPrefix:"S3_"`

	RevocationBackend string `env:"REVOCATION_BACKEND" envDefault:"none"`
	RedisURL          string `env:"REDIS_URL"`

	Auth AuthConfig `envPrefix:"AUTH_"`
	Otel OtelConfig `envPrefix:"OTEL_"`
}

type MongoConfig struct {
	URL      string `env:"URL" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"blog"`
}

type MediaConfig struct {
	Driver          string        `env:"DRIVER" envDefault:"disk"`
	Dir             string        `env:"DIR" envDefault:"uploads"`
	URLPrefix       string        `env:"URL_PREFIX" envDefault:"/media"`
	DefaultCoverURL string        `env:"DEFAULT_COVER_URL"`
	StagingMaxAge   time.Duration `env:"STAGING_MAX_AGE" envDefault:"1h"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

type S3Config struct {
	Bucket          string `env:"BUCKET"`
	Region          string `env:"REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"ENDPOINT"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	ForcePathStyle  bool   `env:"FORCE_PATH_STYLE"`
	PublicURL       string `env:"PUBLIC_URL"`
}

// AuthConfig is the session configuration as read from the environment.
// Session converts it to an authn.Config.
type AuthConfig struct {
	AccessSecret  string `env:"ACCESS_SECRET"`
	RefreshSecret string `env:"REFRESH_SECRET"`

	AccessTTL  time.Duration `env:"ACCESS_TTL" envDefault:"1h"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"24h"`
	Issuer     string        `env:"ISSUER" envDefault:"blogd"`

	AccessTransport      string `env:"ACCESS_TRANSPORT" envDefault:"both"`
	AccessCookieHTTPOnly bool   `env:"ACCESS_COOKIE_HTTPONLY"`
	SlidingRefresh       bool   `env:"SLIDING_REFRESH"`

	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	CookieSameSite string `env:"COOKIE_SAMESITE" envDefault:"strict"`
	CookieDomain   string `env:"COOKIE_DOMAIN"`

	// EphemeralSecrets is set when dev mode generated the secrets. Sessions
	// do not survive a restart.
	EphemeralSecrets bool
}

type OtelConfig struct {
	Enabled     bool    `env:"ENABLED"`
	Endpoint    string  `env:"EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	SampleRatio float64 `env:"SAMPLE_RATIO" envDefault:"1"`
}

// LoadConfig reads an optional .env file and then the environment. The
// session configuration is validated here so a bad deployment fails before
// anything is opened.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	switch cfg.StoreDriver {
	case StoreSQLite, StoreMongo:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	switch cfg.Media.Driver {
	case MediaDisk:
	case MediaS3:
		if cfg.S3.Bucket == "" {
			return Config{}, errors.New("S3_BUCKET is required when MEDIA_DRIVER=s3")
		}
	default:
		return Config{}, fmt.Errorf("unknown MEDIA_DRIVER %q", cfg.Media.Driver)
	}
	switch cfg.RevocationBackend {
	case revocation.BackendNone, revocation.BackendStore:
	case revocation.BackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, errors.New("REDIS_URL is required when REVOCATION_BACKEND=redis")
		}
	default:
		return Config{}, fmt.Errorf("unknown REVOCATION_BACKEND %q", cfg.RevocationBackend)
	}

	if err := cfg.Auth.ensureSecrets(cfg.Env); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Auth.Session(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (a *AuthConfig) ensureSecrets(environment string) error {
	if a.AccessSecret != "" && a.RefreshSecret != "" {
		return nil
	}
	if environment != "dev" {
		return authn.ErrMissingSecret
	}

	for _, secret := range []*string{&a.AccessSecret, &a.RefreshSecret} {
		if *secret != "" {
			continue
		}
		s, err := cryptox.GenerateSecret(cryptox.SecretSize)
		if err != nil {
			return fmt.Errorf("generate ephemeral secret: %w", err)
		}
		*secret = s
	}
	a.EphemeralSecrets = true
	return nil
}

// Session returns the validated authn configuration.
func (a AuthConfig) Session() (authn.Config, error) {
	sameSite, err := authn.ParseSameSite(a.CookieSameSite)
	if err != nil {
		return authn.Config{}, err
	}

	cfg := authn.DefaultConfig()
	cfg.AccessSecret = []byte(a.AccessSecret)
	cfg.RefreshSecret = []byte(a.RefreshSecret)
	cfg.AccessTTL = a.AccessTTL
	cfg.RefreshTTL = a.RefreshTTL
	cfg.Issuer = a.Issuer
	cfg.AccessTransport = authn.AccessTransport(a.AccessTransport)
	cfg.AccessCookieHTTPOnly = a.AccessCookieHTTPOnly
	cfg.SlidingRefresh = a.SlidingRefresh
	cfg.Cookie.Secure = a.CookieSecure
	cfg.Cookie.SameSite = sameSite
	cfg.Cookie.Domain = a.CookieDomain

	if err := cfg.Validate(); err != nil {
		return authn.Config{}, err
	}
	return cfg, nil
}
