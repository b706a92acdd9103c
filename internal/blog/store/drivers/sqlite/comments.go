package sqlite

import (
	"context"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
)

type commentsRepo struct {
	q dbtx
}

func (r *commentsRepo) CreateComment(ctx context.Context, c domain.Comment) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.AuthorID, c.Content, utc(c.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *commentsRepo) GetComment(ctx context.Context, id string) (domain.Comment, error) {
	var c domain.Comment
	err := r.q.QueryRowContext(ctx,
		`SELECT id, post_id, author_id, content, created_at FROM comments WHERE id = ?`, id,
	).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt)
	if err != nil {
		return domain.Comment{}, mapNotFound(err)
	}
	return c, nil
}

func (r *commentsRepo) ListCommentsForPost(ctx context.Context, postID string) ([]domain.CommentView, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.author_id, c.content, c.created_at, u.username
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ?
		ORDER BY c.id`, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.CommentView{}
	for rows.Next() {
		var v domain.CommentView
		if err := rows.Scan(&v.ID, &v.PostID, &v.AuthorID, &v.Content, &v.CreatedAt, &v.Author.Username); err != nil {
			return nil, err
		}
		v.Author.ID = v.AuthorID
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *commentsRepo) DeleteComment(ctx context.Context, id string) error {
	return requireAffected(r.q.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id))
}
