// Package revocation provides the authn.Revoker backends: a store-backed
// deny-list and a redis one.
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/aussiebroadwan/blogd/internal/blog/store"
	"github.com/aussiebroadwan/blogd/pkg/authn"
)

const (
	BackendNone  = "none"
	BackendStore = "store"
	BackendRedis = "redis"
)

// Store keeps revoked token ids in the revoked_tokens table or collection.
// Expired rows are ignored by IsRevoked and purged by housekeeping.
type Store struct {
	repo store.Revocations
	now  func() time.Time
}

var _ authn.Revoker = (*Store)(nil)

func NewStore(repo store.Revocations, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{repo: repo, now: now}
}

func (s *Store) Revoke(ctx context.Context, jti string, until time.Time) error {
	if !until.After(s.now()) {
		return nil
	}
	if err := s.repo.RevokeToken(ctx, domain.RevokedToken{JTI: jti, ExpiresAt: until}); err != nil {
		return fmt.Errorf("revocation: record: %w", err)
	}
	return nil
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := s.repo.IsTokenRevoked(ctx, jti, s.now())
	if err != nil {
		return false, fmt.Errorf("revocation: lookup: %w", err)
	}
	return revoked, nil
}
