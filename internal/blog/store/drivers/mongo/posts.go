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

type postDoc struct {
	ID        string    `bson:"_id"`
	AuthorID  string    `bson:"author_id"`
	Title     string    `bson:"title"`
	Summary   string    `bson:"summary"`
	Content   string    `bson:"content"`
	Cover     string    `bson:"cover"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d postDoc) domain() domain.Post {
	return domain.Post{
		ID: d.ID, AuthorID: d.AuthorID, Title: d.Title, Summary: d.Summary, Content: d.Content,
		Cover: d.Cover, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type postsRepo struct {
	db *mongo.Database
}

func (r *postsRepo) posts() *mongo.Collection { return r.db.Collection(collPosts) }

func (r *postsRepo) CreatePost(ctx context.Context, p domain.Post) error {
	ok, err := exists(ctx, r.db.Collection(collUsers), p.AuthorID)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}

	_, err = r.posts().InsertOne(ctx, postDoc{
		ID: p.ID, AuthorID: p.AuthorID, Title: p.Title, Summary: p.Summary, Content: p.Content,
		Cover: p.Cover, CreatedAt: msUTC(p.CreatedAt), UpdatedAt: msUTC(p.UpdatedAt),
	})
	return mapDuplicate(err)
}

func (r *postsRepo) GetPost(ctx context.Context, id string) (domain.PostView, error) {
	var d postDoc
	if err := r.posts().FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return domain.PostView{}, mapNotFound(err)
	}
	views, err := withAuthors(ctx, r.db, []postDoc{d})
	if err != nil {
		return domain.PostView{}, err
	}
	return views[0], nil
}

func (r *postsRepo) ListRecentPosts(ctx context.Context, limit int) ([]domain.PostView, error) {
	cur, err := r.posts().Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return withAuthors(ctx, r.db, docs)
}

func (r *postsRepo) UpdatePost(ctx context.Context, p domain.Post) error {
	res, err := r.posts().UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"title":      p.Title,
		"summary":    p.Summary,
		"content":    p.Content,
		"cover":      p.Cover,
		"updated_at": msUTC(time.Now()),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeletePost removes the post first so dependents are never reachable
// through it, then its comments and favorites.
func (r *postsRepo) DeletePost(ctx context.Context, id string) (domain.Post, error) {
	var d postDoc
	if err := r.posts().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return domain.Post{}, mapNotFound(err)
	}
	if _, err := r.db.Collection(collComments).DeleteMany(ctx, bson.M{"post_id": id}); err != nil {
		return d.domain(), err
	}
	if _, err := r.db.Collection(collFavorites).DeleteMany(ctx, bson.M{"post_id": id}); err != nil {
		return d.domain(), err
	}
	return d.domain(), nil
}

func withAuthors(ctx context.Context, db *mongo.Database, docs []postDoc) ([]domain.PostView, error) {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.AuthorID)
	}
	authors, err := authorsByID(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PostView, 0, len(docs))
	for _, d := range docs {
		a, ok := authors[d.AuthorID]
		if !ok {
			a = domain.Author{ID: d.AuthorID}
		}
		out = append(out, domain.PostView{Post: d.domain(), Author: a})
	}
	return out, nil
}
