package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
)

type postsRepo struct {
	s *Store
}

const postViewSelect = `
SELECT p.id, p.author_id, p.title, p.summary, p.content, p.cover, p.created_at, p.updated_at, u.username
FROM posts p
JOIN users u ON u.id = p.author_id`

func scanPostView(row interface{ Scan(...any) error }) (domain.PostView, error) {
	var v domain.PostView
	err := row.Scan(
		&v.ID, &v.AuthorID, &v.Title, &v.Summary, &v.Content, &v.Cover,
		&v.CreatedAt, &v.UpdatedAt, &v.Author.Username,
	)
	v.Author.ID = v.AuthorID
	return v, err
}

func (r *postsRepo) CreatePost(ctx context.Context, p domain.Post) error {
	_, err := r.s.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, title, summary, content, cover, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AuthorID, p.Title, p.Summary, p.Content, p.Cover, utc(p.CreatedAt), utc(p.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *postsRepo) GetPost(ctx context.Context, id string) (domain.PostView, error) {
	v, err := scanPostView(r.s.db.QueryRowContext(ctx, postViewSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return domain.PostView{}, mapNotFound(err)
	}
	return v, nil
}

func (r *postsRepo) ListRecentPosts(ctx context.Context, limit int) ([]domain.PostView, error) {
	return queryPostViews(ctx, r.s.db, postViewSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT ?`, limit)
}

func (r *postsRepo) UpdatePost(ctx context.Context, p domain.Post) error {
	return requireAffected(r.s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, summary = ?, content = ?, cover = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Summary, p.Content, p.Cover, time.Now().UTC(), p.ID,
	))
}

// DeletePost relies on ON DELETE CASCADE for comments and favorites. The
// read and delete share a transaction so the returned row is the one removed.
func (r *postsRepo) DeletePost(ctx context.Context, id string) (domain.Post, error) {
	var deleted domain.Post
	err := r.s.withTx(ctx, func(q dbtx) error {
		v, err := scanPostView(q.QueryRowContext(ctx, postViewSelect+` WHERE p.id = ?`, id))
		if err != nil {
			return mapNotFound(err)
		}
		if err := requireAffected(q.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)); err != nil {
			return err
		}
		deleted = v.Post
		return nil
	})
	return deleted, err
}

func queryPostViews(ctx context.Context, q dbtx, query string, args ...any) ([]domain.PostView, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.PostView{}
	for rows.Next() {
		v, err := scanPostView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
