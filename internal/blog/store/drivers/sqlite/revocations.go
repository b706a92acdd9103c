package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
)

type revocationsRepo struct {
	q dbtx
}

func (r *revocationsRepo) RevokeToken(ctx context.Context, t domain.RevokedToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		ON CONFLICT (jti) DO UPDATE SET expires_at = MAX(expires_at, excluded.expires_at)`,
		t.JTI, t.ExpiresAt.Unix(),
	)
	return err
}

func (r *revocationsRepo) IsTokenRevoked(ctx context.Context, jti string, now time.Time) (bool, error) {
	var revoked bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ? AND expires_at > ?)`,
		jti, now.Unix(),
	).Scan(&revoked)
	return revoked, err
}

func (r *revocationsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
