package app

import (
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-0123456789abcdefghijklmnop"
	testRefreshSecret = "refresh-secret-0123456789abcdefghijklmno"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "dev")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, StoreSQLite, cfg.StoreDriver)
	require.Equal(t, "blog.db", cfg.DatabaseFile)
	require.Equal(t, MediaDisk, cfg.Media.Driver)
	require.Equal(t, time.Hour, cfg.Media.StagingMaxAge)
	require.Equal(t, "none", cfg.RevocationBackend)
	require.Equal(t, 8080, cfg.Port)

	// Dev without secrets falls back to random ones.
	require.True(t, cfg.Auth.EphemeralSecrets)
	require.NotEmpty(t, cfg.Auth.AccessSecret)
	require.NotEqual(t, cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret)

	session, err := cfg.Auth.Session()
	require.NoError(t, err)
	require.Equal(t, time.Hour, session.AccessTTL)
	require.Equal(t, 24*time.Hour, session.RefreshTTL)
	require.Equal(t, authn.AccessViaBoth, session.AccessTransport)
	require.True(t, session.Cookie.Secure)
	require.Equal(t, http.SameSiteStrictMode, session.Cookie.SameSite)
	require.False(t, session.SlidingRefresh)
}

func TestLoadConfigSession(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("AUTH_ACCESS_SECRET", testAccessSecret)
	t.Setenv("AUTH_REFRESH_SECRET", testRefreshSecret)
	t.Setenv("AUTH_ACCESS_TTL", "15m")
	t.Setenv("AUTH_REFRESH_TTL", "168h")
	t.Setenv("AUTH_COOKIE_SECURE", "false")
	t.Setenv("AUTH_COOKIE_SAMESITE", "lax")
	t.Setenv("AUTH_ACCESS_TRANSPORT", "header")
	t.Setenv("AUTH_SLIDING_REFRESH", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.False(t, cfg.Auth.EphemeralSecrets)

	session, err := cfg.Auth.Session()
	require.NoError(t, err)
	require.Equal(t, []byte(testAccessSecret), session.AccessSecret)
	require.Equal(t, 15*time.Minute, session.AccessTTL)
	require.Equal(t, 168*time.Hour, session.RefreshTTL)
	require.Equal(t, authn.AccessViaHeader, session.AccessTransport)
	require.False(t, session.Cookie.Secure)
	require.Equal(t, http.SameSiteLaxMode, session.Cookie.SameSite)
	require.True(t, session.SlidingRefresh)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{"prod without secrets", map[string]string{"ENV": "prod"}, authn.ErrMissingSecret},
		{"same secrets", map[string]string{
			"AUTH_ACCESS_SECRET": testAccessSecret, "AUTH_REFRESH_SECRET": testAccessSecret,
		}, authn.ErrSameSecret},
		{"short secret", map[string]string{
			"AUTH_ACCESS_SECRET": "short", "AUTH_REFRESH_SECRET": testRefreshSecret,
		}, authn.ErrShortSecret},
		{"refresh not longer than access", map[string]string{
			"AUTH_ACCESS_TTL": "2h", "AUTH_REFRESH_TTL": "1h",
		}, authn.ErrTTLOrder},
		{"unknown store", map[string]string{"STORE_DRIVER": "postgres"}, nil},
		{"unknown media", map[string]string{"MEDIA_DRIVER": "ftp"}, nil},
		{"s3 without bucket", map[string]string{"MEDIA_DRIVER": "s3"}, nil},
		{"redis without url", map[string]string{"REVOCATION_BACKEND": "redis"}, nil},
		{"bad samesite", map[string]string{"AUTH_COOKIE_SAMESITE": "sometimes"}, nil},
		{"bad duration", map[string]string{"AUTH_ACCESS_TTL": "soon"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", "dev")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
