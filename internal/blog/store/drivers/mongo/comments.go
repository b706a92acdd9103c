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

type commentDoc struct {
	ID        string    `bson:"_id"`
	PostID    string    `bson:"post_id"`
	AuthorID  string    `bson:"author_id"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d commentDoc) domain() domain.Comment {
	return domain.Comment{ID: d.ID, PostID: d.PostID, AuthorID: d.AuthorID, Content: d.Content, CreatedAt: d.CreatedAt}
}

type commentsRepo struct {
	db *mongo.Database
}

func (r *commentsRepo) comments() *mongo.Collection { return r.db.Collection(collComments) }

func (r *commentsRepo) CreateComment(ctx context.Context, c domain.Comment) error {
	ok, err := exists(ctx, r.db.Collection(collPosts), c.PostID)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}

	_, err = r.comments().InsertOne(ctx, commentDoc{
		ID: c.ID, PostID: c.PostID, AuthorID: c.AuthorID, Content: c.Content, CreatedAt: msUTC(c.CreatedAt),
	})
	return mapDuplicate(err)
}

func (r *commentsRepo) GetComment(ctx context.Context, id string) (domain.Comment, error) {
	var d commentDoc
	if err := r.comments().FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return domain.Comment{}, mapNotFound(err)
	}
	return d.domain(), nil
}

func (r *commentsRepo) ListCommentsForPost(ctx context.Context, postID string) ([]domain.CommentView, error) {
	cur, err := r.comments().Find(ctx, bson.M{"post_id": postID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.AuthorID)
	}
	authors, err := authorsByID(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CommentView, 0, len(docs))
	for _, d := range docs {
		a, ok := authors[d.AuthorID]
		if !ok {
			a = domain.Author{ID: d.AuthorID}
		}
		out = append(out, domain.CommentView{Comment: d.domain(), Author: a})
	}
	return out, nil
}

func (r *commentsRepo) DeleteComment(ctx context.Context, id string) error {
	res, err := r.comments().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
