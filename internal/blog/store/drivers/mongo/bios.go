package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type bioDoc struct {
	UserID    string    `bson:"_id"`
	Content   string    `bson:"content"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type biosRepo struct {
	c *mongo.Collection
}

func (r *biosRepo) GetBio(ctx context.Context, userID string) (domain.Bio, error) {
	var d bioDoc
	if err := r.c.FindOne(ctx, bson.M{"_id": userID}).Decode(&d); err != nil {
		return domain.Bio{}, mapNotFound(err)
	}
	return domain.Bio{UserID: d.UserID, Content: d.Content, UpdatedAt: d.UpdatedAt}, nil
}

func (r *biosRepo) UpsertBio(ctx context.Context, b domain.Bio) error {
	_, err := r.c.UpdateOne(ctx,
		bson.M{"_id": b.UserID},
		bson.M{"$set": bson.M{"content": b.Content, "updated_at": msUTC(b.UpdatedAt)}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}
