package service

import (
	"context"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/aussiebroadwan/blogd/internal/blog/store"
)

type FavoriteService struct {
	Store store.Store
}

// Add is idempotent. ErrNotFound if the post does not exist.
func (s *FavoriteService) Add(ctx context.Context, userID, postID string) error {
	return notFound(s.Store.Favorites().AddFavorite(ctx, userID, postID))
}

func (s *FavoriteService) Remove(ctx context.Context, userID, postID string) error {
	return s.Store.Favorites().RemoveFavorite(ctx, userID, postID)
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]domain.PostView, error) {
	return s.Store.Favorites().ListFavorites(ctx, userID)
}
