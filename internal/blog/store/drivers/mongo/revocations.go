package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// revocationsRepo relies on the TTL index on expires_at for cleanup;
// DeleteExpired only catches what the TTL monitor has not reached yet.
type revocationsRepo struct {
	c *mongo.Collection
}

func (r *revocationsRepo) RevokeToken(ctx context.Context, t domain.RevokedToken) error {
	_, err := r.c.UpdateOne(ctx,
		bson.M{"_id": t.JTI},
		bson.M{"$max": bson.M{"expires_at": msUTC(t.ExpiresAt)}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (r *revocationsRepo) IsTokenRevoked(ctx context.Context, jti string, now time.Time) (bool, error) {
	n, err := r.c.CountDocuments(ctx,
		bson.M{"_id": jti, "expires_at": bson.M{"$gt": now.UTC()}},
		options.Count().SetLimit(1),
	)
	return n > 0, err
}

func (r *revocationsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
