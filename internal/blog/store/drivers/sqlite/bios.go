package sqlite

import (
	"context"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
)

type biosRepo struct {
	q dbtx
}

func (r *biosRepo) GetBio(ctx context.Context, userID string) (domain.Bio, error) {
	var b domain.Bio
	err := r.q.QueryRowContext(ctx,
		`SELECT user_id, content, updated_at FROM bios WHERE user_id = ?`, userID,
	).Scan(&b.UserID, &b.Content, &b.UpdatedAt)
	if err != nil {
		return domain.Bio{}, mapNotFound(err)
	}
	return b, nil
}

func (r *biosRepo) UpsertBio(ctx context.Context, b domain.Bio) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO bios (user_id, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		b.UserID, b.Content, utc(b.UpdatedAt),
	)
	return mapConstraint(err)
}
