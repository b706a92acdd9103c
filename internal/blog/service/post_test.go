package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aussiebroadwan/blogd/internal/blog/service"
	"github.com/stretchr/testify/require"
)

func TestPostLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob-1")

	first := f.cover(t, "cover.png")
	created, err := f.posts.Create(ctx, alice.ID, post("hello"), first)
	require.NoError(t, err)
	require.Equal(t, "alice", created.Author.Username)
	require.Equal(t, first.staged.Key, created.Cover)
	require.True(t, f.committed(created.Cover))

	t.Run("non-author cannot update or delete", func(t *testing.T) {
		_, err := f.posts.Update(ctx, bob.ID, created.ID, post("mine now"), nil)
		require.ErrorIs(t, err, service.ErrForbidden)
		require.ErrorIs(t, f.posts.Delete(ctx, bob.ID, created.ID), service.ErrForbidden)
	})

	t.Run("update without upload keeps cover", func(t *testing.T) {
		updated, err := f.posts.Update(ctx, alice.ID, created.ID, post("edited"), nil)
		require.NoError(t, err)
		require.Equal(t, "edited", updated.Title)
		require.Equal(t, created.Cover, updated.Cover)
	})

	t.Run("update with upload replaces cover", func(t *testing.T) {
		second := f.cover(t, "new.jpg")
		updated, err := f.posts.Update(ctx, alice.ID, created.ID, post("edited"), second)
		require.NoError(t, err)
		require.Equal(t, second.staged.Key, updated.Cover)
		require.True(t, f.committed(updated.Cover))
		require.False(t, f.committed(created.Cover), "old cover must be removed")
		created = updated
	})

	t.Run("delete removes cover", func(t *testing.T) {
		require.NoError(t, f.posts.Delete(ctx, alice.ID, created.ID))
		require.False(t, f.committed(created.Cover))

		_, err := f.posts.Get(ctx, created.ID)
		require.ErrorIs(t, err, service.ErrNotFound)
		require.ErrorIs(t, f.posts.Delete(ctx, alice.ID, created.ID), service.ErrNotFound)
	})
}

func TestPostValidationLeavesUploadStaged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice")

	tests := []struct {
		name  string
		input service.PostInput
		field string
	}{
		{"missing title", service.PostInput{Title: "  ", Content: "x"}, "title"},
		{"long title", service.PostInput{Title: strings.Repeat("t", 201), Content: "x"}, "title"},
		{"long summary", service.PostInput{Title: "t", Summary: strings.Repeat("s", 501), Content: "x"}, "summary"},
		{"missing content", service.PostInput{Title: "t"}, "content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := f.cover(t, "c.png")
			_, err := f.posts.Create(ctx, alice.ID, tt.input, c)
			require.ErrorIs(t, err, service.ErrInvalidInput)

			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)
			require.False(t, f.committed(c.staged.Key))
		})
	}
}

func TestListRecent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice")

	for i := range 25 {
		_, err := f.posts.Create(ctx, alice.ID, post(strings.Repeat("p", i+1)), nil)
		require.NoError(t, err)
	}

	recent, err := f.posts.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 20)
	require.Equal(t, strings.Repeat("p", 25), recent[0].Title)
	require.Empty(t, recent[0].Cover)
}
