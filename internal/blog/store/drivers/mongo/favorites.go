package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/aussiebroadwan/blogd/internal/blog/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type favoriteDoc struct {
	UserID    string    `bson:"user_id"`
	PostID    string    `bson:"post_id"`
	CreatedAt time.Time `bson:"created_at"`
}

type favoritesRepo struct {
	db *mongo.Database
}

func (r *favoritesRepo) favorites() *mongo.Collection { return r.db.Collection(collFavorites) }

func (r *favoritesRepo) AddFavorite(ctx context.Context, userID, postID string) error {
	ok, err := exists(ctx, r.db.Collection(collPosts), postID)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}

	_, err = r.favorites().UpdateOne(ctx,
		bson.M{"user_id": userID, "post_id": postID},
		bson.M{"$setOnInsert": bson.M{"created_at": msUTC(time.Now())}},
		options.UpdateOne().SetUpsert(true),
	)
	// Two concurrent upserts can race on the unique index; either way the
	// favorite exists.
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *favoritesRepo) RemoveFavorite(ctx context.Context, userID, postID string) error {
	_, err := r.favorites().DeleteOne(ctx, bson.M{"user_id": userID, "post_id": postID})
	return err
}

func (r *favoritesRepo) ListFavorites(ctx context.Context, userID string) ([]domain.PostView, error) {
	cur, err := r.favorites().Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "post_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var favs []favoriteDoc
	if err := cur.All(ctx, &favs); err != nil {
		return nil, err
	}
	if len(favs) == 0 {
		return []domain.PostView{}, nil
	}

	ids := make([]string, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.PostID)
	}
	cur, err = r.db.Collection(collPosts).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	byID := make(map[string]postDoc, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	ordered := make([]postDoc, 0, len(docs))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			ordered = append(ordered, d)
		}
	}
	return withAuthors(ctx, r.db, ordered)
}
