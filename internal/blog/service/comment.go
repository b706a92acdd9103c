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
	"github.com/aussiebroadwan/blogd/pkg/slogx"
)

type CommentService struct {
	Store store.Store
	Now   func() time.Time
}

func (s *CommentService) Create(ctx context.Context, authorID, postID, content string) (domain.Comment, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return domain.Comment{}, invalid("content", "is required")
	case utf8.RuneCountInString(content) > domain.MaxCommentLength:
		return domain.Comment{}, invalid("content", "is too long")
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	c := domain.Comment{
		ID:        idx.NewAt(now).String(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: now,
	}
	if err := s.Store.Comments().CreateComment(ctx, c); err != nil {
		return domain.Comment{}, notFound(err)
	}

	slogx.FromContext(ctx).Info("comment created", slog.String("comment_id", c.ID), slog.String("post_id", postID))
	return c, nil
}

// ListForPost returns the post's comments oldest first. ErrNotFound if the
// post does not exist.
func (s *CommentService) ListForPost(ctx context.Context, postID string) ([]domain.CommentView, error) {
	if _, err := s.Store.Posts().GetPost(ctx, postID); err != nil {
		return nil, notFound(err)
	}
	return s.Store.Comments().ListCommentsForPost(ctx, postID)
}

// Delete removes a comment. Only its author may.
func (s *CommentService) Delete(ctx context.Context, userID, commentID string) error {
	c, err := s.Store.Comments().GetComment(ctx, commentID)
	if err != nil {
		return notFound(err)
	}
	if c.AuthorID != userID {
		return ErrForbidden
	}
	return notFound(s.Store.Comments().DeleteComment(ctx, commentID))
}
