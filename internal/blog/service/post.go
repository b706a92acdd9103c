package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/aussiebroadwan/blogd/internal/blog/store"
	"github.com/aussiebroadwan/blogd/pkg/idx"
	"github.com/aussiebroadwan/blogd/pkg/media"
	"github.com/aussiebroadwan/blogd/pkg/slogx"
)

// Cover is an upload that only becomes permanent once committed. A nil
// Cover means the request carried no file.
type Cover interface {
	Commit(ctx context.Context) (string, error)
}

type PostInput struct {
	Title   string
	Summary string
	Content string
}

func (in PostInput) normalize() (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Summary = strings.TrimSpace(in.Summary)

	switch {
	case in.Title == "":
		return in, invalid("title", "is required")
	case utf8.RuneCountInString(in.Title) > domain.MaxTitleLength:
		return in, invalid("title", "is too long")
	case utf8.RuneCountInString(in.Summary) > domain.MaxSummaryLength:
		return in, invalid("summary", "is too long")
	case strings.TrimSpace(in.Content) == "":
		return in, invalid("content", "is required")
	case len(in.Content) > domain.MaxContentLength:
		return in, invalid("content", "is too long")
	}
	return in, nil
}

type PostService struct {
	Store store.Store
	Media media.Stager
	Now   func() time.Time
}

func (s *PostService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create validates the input before committing the cover, so a rejected
// post leaves the upload in staging for the middleware to discard.
func (s *PostService) Create(ctx context.Context, authorID string, in PostInput, cover Cover) (domain.PostView, error) {
	log := slogx.FromContext(ctx)

	in, err := in.normalize()
	if err != nil {
		return domain.PostView{}, err
	}

	var key string
	if cover != nil {
		if key, err = cover.Commit(ctx); err != nil {
			log.Error("failed to commit cover", slog.Any("error", err))
			return domain.PostView{}, err
		}
	}

	now := s.now()
	p := domain.Post{
		ID:        idx.NewAt(now).String(),
		AuthorID:  authorID,
		Title:     in.Title,
		Summary:   in.Summary,
		Content:   in.Content,
		Cover:     key,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Posts().CreatePost(ctx, p); err != nil {
		s.deleteCover(ctx, key)
		log.Error("failed to create post", slog.Any("error", err))
		return domain.PostView{}, notFound(err)
	}

	log.Info("post created", slog.String("post_id", p.ID), slog.String("user_id", authorID))
	return s.Get(ctx, p.ID)
}

func (s *PostService) Get(ctx context.Context, id string) (domain.PostView, error) {
	v, err := s.Store.Posts().GetPost(ctx, id)
	return v, notFound(err)
}

func (s *PostService) ListRecent(ctx context.Context) ([]domain.PostView, error) {
	return s.Store.Posts().ListRecentPosts(ctx, domain.RecentPostsLimit)
}

// Update replaces the post's text. The cover only changes when a new upload
// was committed; the old object is then removed.
func (s *PostService) Update(ctx context.Context, userID, postID string, in PostInput, cover Cover) (domain.PostView, error) {
	log := slogx.FromContext(ctx)

	current, err := s.Store.Posts().GetPost(ctx, postID)
	if err != nil {
		return domain.PostView{}, notFound(err)
	}
	if current.AuthorID != userID {
		log.Warn("post update by non-author", slog.String("post_id", postID), slog.String("user_id", userID))
		return domain.PostView{}, ErrForbidden
	}
	if in, err = in.normalize(); err != nil {
		return domain.PostView{}, err
	}

	next := current.Post
	next.Title, next.Summary, next.Content = in.Title, in.Summary, in.Content
	if cover != nil {
		if next.Cover, err = cover.Commit(ctx); err != nil {
			log.Error("failed to commit cover", slog.Any("error", err))
			return domain.PostView{}, err
		}
	}

	if err := s.Store.Posts().UpdatePost(ctx, next); err != nil {
		if next.Cover != current.Cover {
			s.deleteCover(ctx, next.Cover)
		}
		log.Error("failed to update post", slog.String("post_id", postID), slog.Any("error", err))
		return domain.PostView{}, notFound(err)
	}
	if next.Cover != current.Cover {
		s.deleteCover(ctx, current.Cover)
	}

	log.Info("post updated", slog.String("post_id", postID))
	return s.Get(ctx, postID)
}

// Delete removes the post with its comments, favorites and cover.
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	log := slogx.FromContext(ctx)

	current, err := s.Store.Posts().GetPost(ctx, postID)
	if err != nil {
		return notFound(err)
	}
	if current.AuthorID != userID {
		log.Warn("post delete by non-author", slog.String("post_id", postID), slog.String("user_id", userID))
		return ErrForbidden
	}

	deleted, err := s.Store.Posts().DeletePost(ctx, postID)
	if err != nil {
		return notFound(err)
	}
	s.deleteCover(ctx, deleted.Cover)

	log.Info("post deleted", slog.String("post_id", postID))
	return nil
}

// deleteCover is best effort. An orphaned object costs storage, not
// correctness.
func (s *PostService) deleteCover(ctx context.Context, key string) {
	if key == "" || s.Media == nil {
		return
	}
	if err := s.Media.Delete(context.WithoutCancel(ctx), key); err != nil {
		slogx.FromContext(ctx).Warn("failed to delete cover", slog.String("key", key), slog.Any("error", err))
	}
}
