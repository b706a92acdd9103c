package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/aussiebroadwan/blogd/internal/blog/store"
)

type BioService struct {
	Store store.Store
	Now   func() time.Time
}

// Get returns the user's bio, or an empty one if none was written.
func (s *BioService) Get(ctx context.Context, userID string) (domain.Bio, error) {
	b, err := s.Store.Bios().GetBio(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Bio{UserID: userID}, nil
	}
	return b, err
}

func (s *BioService) Upsert(ctx context.Context, userID, content string) (domain.Bio, error) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) > domain.MaxBioLength {
		return domain.Bio{}, invalid("content", "is too long")
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	b := domain.Bio{UserID: userID, Content: content, UpdatedAt: now}
	if err := s.Store.Bios().UpsertBio(ctx, b); err != nil {
		return domain.Bio{}, err
	}
	return b, nil
}
