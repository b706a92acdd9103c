package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
)

type favoritesRepo struct {
	q dbtx
}

func (r *favoritesRepo) AddFavorite(ctx context.Context, userID, postID string) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO favorites (user_id, post_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID, time.Now().UTC(),
	)
	return mapConstraint(err)
}

func (r *favoritesRepo) RemoveFavorite(ctx context.Context, userID, postID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND post_id = ?`, userID, postID)
	return err
}

func (r *favoritesRepo) ListFavorites(ctx context.Context, userID string) ([]domain.PostView, error) {
	return queryPostViews(ctx, r.q, postViewSelect+`
		JOIN favorites f ON f.post_id = p.id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, p.id DESC`, userID)
}
