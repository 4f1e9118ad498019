package blog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blog "github.com/inkpress/go-blog"
)

func publishTestPost(t *testing.T, repo blog.Posts, title, author string) *blog.Post {
	t.Helper()

	created, err := repo.Publish(context.Background(), &blog.Post{
		Title:  title,
		Author: author,
		Body:   "A body long enough to clear the minimum length rule.",
	})
	require.NoError(t, err)

	return created
}

func TestPostsPublish(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewPostsRepository(db)
	ctx := context.Background()

	t.Run("fills id and default category", func(t *testing.T) {
		created := publishTestPost(t, repo, "Hello World", "Alice01")

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, blog.DefaultPostCategory, created.Category)
	})

	t.Run("keeps an explicit category", func(t *testing.T) {
		created, err := repo.Publish(ctx, &blog.Post{
			Title:    "On Gardening",
			Author:   "Alice01",
			Category: "Hobby",
			Body:     "A body long enough to clear the minimum length rule.",
		})
		require.NoError(t, err)
		assert.Equal(t, "Hobby", created.Category)
	})

	tests := []struct {
		name string
		post *blog.Post
	}{
		{
			name: "title too short",
			post: &blog.Post{
				Title:  "Hi",
				Author: "Alice01",
				Body:   "A body long enough to clear the minimum length rule.",
			},
		},
		{
			name: "title too long",
			post: &blog.Post{
				Title:  strings.Repeat("x", 61),
				Author: "Alice01",
				Body:   "A body long enough to clear the minimum length rule.",
			},
		},
		{
			name: "body too short",
			post: &blog.Post{
				Title:  "Hello World",
				Author: "Alice01",
				Body:   "too short",
			},
		},
		{
			name: "category too long",
			post: &blog.Post{
				Title:    "Hello World",
				Author:   "Alice01",
				Category: "WayTooLongCategoryName",
				Body:     "A body long enough to clear the minimum length rule.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Publish(ctx, tt.post)
			require.Error(t, err)

			var rich *errors.Error
			require.True(t, errors.As(err, &rich))
			assert.Equal(t, errors.CategoryValidation, rich.Category)
		})
	}
}

func TestPostsGetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewPostsRepository(db)
	ctx := context.Background()

	created := publishTestPost(t, repo, "Hello World", "Alice01")

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", found.Title)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, blog.ErrPostNotFound)
}

func TestPostsSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewPostsRepository(db)
	ctx := context.Background()

	publishTestPost(t, repo, "Go Concurrency Patterns", "Alice01")
	publishTestPost(t, repo, "Cooking With Cast Iron", "Bobby02")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"matches title substring", "concurrency", 1},
		{"matches author substring", "bobby", 1},
		{"case insensitive", "COOKING", 1},
		{"no matches", "quantum", 0},
		{"empty query returns nothing", "", 0},
		{"blank query returns nothing", "   ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := repo.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestPostsList(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewPostsRepository(db)
	ctx := context.Background()

	publishTestPost(t, repo, "First Post", "Alice01")
	publishTestPost(t, repo, "Second Post", "Alice01")

	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPostsUpdateFields(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewPostsRepository(db)
	ctx := context.Background()

	created := publishTestPost(t, repo, "Hello World", "Alice01")

	t.Run("patches only the provided fields", func(t *testing.T) {
		updated, err := repo.UpdateFields(ctx, created.ID, blog.PostUpdate{
			Title: "Hello Again",
		})
		require.NoError(t, err)
		assert.Equal(t, "Hello Again", updated.Title)
		assert.Equal(t, blog.DefaultPostCategory, updated.Category)
		assert.Equal(t, "Alice01", updated.Author)
	})

	t.Run("rejects a patch that violates field rules", func(t *testing.T) {
		_, err := repo.UpdateFields(ctx, created.ID, blog.PostUpdate{
			Title: "Hi",
		})
		require.Error(t, err)

		var rich *errors.Error
		require.True(t, errors.As(err, &rich))
		assert.Equal(t, errors.CategoryValidation, rich.Category)
	})

	t.Run("unknown post is a not found", func(t *testing.T) {
		_, err := repo.UpdateFields(ctx, uuid.New(), blog.PostUpdate{Title: "Whatever"})
		assert.ErrorIs(t, err, blog.ErrPostNotFound)
	})
}

func TestPostsDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewPostsRepository(db)
	ctx := context.Background()

	created := publishTestPost(t, repo, "Hello World", "Alice01")

	_, err := repo.AddComment(ctx, created.ID, &blog.Comment{
		Body:      "nice write-up!",
		CreatedBy: "Bobby02",
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, created.ID))

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, blog.ErrPostNotFound)

	t.Run("comments do not survive the post", func(t *testing.T) {
		count, err := db.NewSelect().
			Model((*blog.Comment)(nil)).
			Where("post_id = ?", created.ID).
			Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("deleting twice is a not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.DeleteByID(ctx, created.ID), blog.ErrPostNotFound)
	})
}

func TestPostsComments(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewPostsRepository(db)
	ctx := context.Background()

	created := publishTestPost(t, repo, "Hello World", "Alice01")

	t.Run("comments ride along on the post", func(t *testing.T) {
		comment, err := repo.AddComment(ctx, created.ID, &blog.Comment{
			Body:      "nice write-up!",
			CreatedBy: "Bobby02",
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, comment.ID)

		found, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, found.Comments, 1)
		assert.Equal(t, "Bobby02", found.Comments[0].CreatedBy)
	})

	t.Run("comment on a missing post is a not found", func(t *testing.T) {
		_, err := repo.AddComment(ctx, uuid.New(), &blog.Comment{
			Body:      "nice write-up!",
			CreatedBy: "Bobby02",
		})
		assert.ErrorIs(t, err, blog.ErrPostNotFound)
	})

	t.Run("short comment fails validation", func(t *testing.T) {
		_, err := repo.AddComment(ctx, created.ID, &blog.Comment{
			Body:      "hi",
			CreatedBy: "Bobby02",
		})
		require.Error(t, err)

		var rich *errors.Error
		require.True(t, errors.As(err, &rich))
		assert.Equal(t, errors.CategoryValidation, rich.Category)
	})

	t.Run("RemoveComment deletes the row", func(t *testing.T) {
		comment, err := repo.AddComment(ctx, created.ID, &blog.Comment{
			Body:      "delete me please",
			CreatedBy: "Bobby02",
		})
		require.NoError(t, err)

		require.NoError(t, repo.RemoveComment(ctx, created.ID, comment.ID))

		found, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		for _, c := range found.Comments {
			assert.NotEqual(t, comment.ID, c.ID)
		}
	})

	t.Run("removing an absent comment is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.RemoveComment(ctx, created.ID, uuid.New()))
	})

	t.Run("removing from a missing post is a not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.RemoveComment(ctx, uuid.New(), uuid.New()), blog.ErrPostNotFound)
	})
}
