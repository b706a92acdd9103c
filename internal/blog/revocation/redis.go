package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "blog:revoked:"

// Redis stores one key per revoked jti. The key expires with the token so
// the set never needs sweeping.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ authn.Revoker = (*Redis)(nil)

func NewRedis(client redis.UniversalClient, prefix string, now func() time.Time) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &Redis{client: client, prefix: prefix, now: now}
}

// OpenRedis parses a redis:// URL and pings the server.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("revocation: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("revocation: ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	// Keep whichever expiry is later if the jti is revoked twice.
	key := r.prefix + jti
	current, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("revocation: ttl: %w", err)
	}
	if current > ttl {
		return nil
	}
	if err := r.client.Set(ctx, key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revocation: set: %w", err)
	}
	return nil
}

func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: exists: %w", err)
	}
	return n > 0, nil
}
