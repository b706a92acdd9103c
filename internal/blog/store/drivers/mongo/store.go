// Package mongo is the MongoDB store driver. Collections mirror the sqlite
// tables; joins are done in Go with a second $in query.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	collUsers       = "users"
	collPosts       = "posts"
	collComments    = "comments"
	collBios        = "bios"
	collFavorites   = "favorites"
	collRevocations = "revoked_tokens"
)

type Config struct {
	URL            string
	Database       string
	ConnectTimeout time.Duration
	RetryAttempts  int
	RetryInterval  time.Duration
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// NewStore connects and pings, retrying while the server comes up.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		cfg.Database = "blog"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}

	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.URL).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	err = pingWithRetry(ctx, client, cfg.RetryAttempts, cfg.RetryInterval)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	return &Store{client: client, db: client.Database(cfg.Database)}, nil
}

func pingWithRetry(ctx context.Context, client *mongo.Client, attempts int, interval time.Duration) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = client.Ping(ctx, readpref.Primary()); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return err
}

// ApplyMigrations creates the indexes the repos depend on. It is safe to
// run on every start.
func (s *Store) ApplyMigrations() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collPosts: {
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "author_id", Value: 1}}},
		},
		collComments: {
			{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "_id", Value: 1}}},
		},
		collFavorites: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "post_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "post_id", Value: 1}}},
		},
		// The server drops revoked entries once they expire.
		collRevocations: {
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Users() store.Users             { return &usersRepo{c: s.db.Collection(collUsers)} }
func (s *Store) Posts() store.Posts             { return &postsRepo{db: s.db} }
func (s *Store) Comments() store.Comments       { return &commentsRepo{db: s.db} }
func (s *Store) Bios() store.Bios               { return &biosRepo{c: s.db.Collection(collBios)} }
func (s *Store) Favorites() store.Favorites     { return &favoritesRepo{db: s.db} }
func (s *Store) Revocations() store.Revocations { return &revocationsRepo{c: s.db.Collection(collRevocations)} }

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func mapDuplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// exists reports whether a document with _id exists in coll.
func exists(ctx context.Context, c *mongo.Collection, id string) (bool, error) {
	n, err := c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// bson stores millisecond precision.
func msUTC(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }
