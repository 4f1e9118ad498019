package blog_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	blog "github.com/inkpress/go-blog"
)

var dbCounter atomic.Int64

// setupTestDB opens a fresh in-memory database with the full schema
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, blog.CreateSchema(context.Background(), db))

	return db
}

func registerTestUser(t *testing.T, repo blog.Users, email, displayName, password string) *blog.User {
	t.Helper()

	created, err := repo.Register(context.Background(), &blog.User{
		Email:       email,
		DisplayName: displayName,
	}, password)
	require.NoError(t, err)

	return created
}

func TestUsersRegister(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewUsersRepository(db)
	ctx := context.Background()

	t.Run("creates a user with defaults and a hashed password", func(t *testing.T) {
		created := registerTestUser(t, repo, "Alice@Example.com", "Alice01", "secret1")

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, "alice@example.com", created.Email)
		assert.Equal(t, blog.RoleUser, created.Role)
		assert.True(t, blog.IsHashedPassword(created.PasswordHash))
		assert.NotEqual(t, "secret1", created.PasswordHash)
	})

	t.Run("duplicate email gets the duplicate identity error", func(t *testing.T) {
		_, err := repo.Register(ctx, &blog.User{
			Email:       "alice@example.com",
			DisplayName: "Other01",
		}, "secret1")
		assert.ErrorIs(t, err, blog.ErrDuplicateIdentity)
	})

	t.Run("duplicate email with different casing is still a duplicate", func(t *testing.T) {
		_, err := repo.Register(ctx, &blog.User{
			Email:       "ALICE@EXAMPLE.COM",
			DisplayName: "Other02",
		}, "secret1")
		assert.ErrorIs(t, err, blog.ErrDuplicateIdentity)
	})

	t.Run("duplicate display name gets the same duplicate identity error", func(t *testing.T) {
		_, err := repo.Register(ctx, &blog.User{
			Email:       "someone@example.com",
			DisplayName: "Alice01",
		}, "secret1")
		assert.ErrorIs(t, err, blog.ErrDuplicateIdentity)
	})

	t.Run("short display name fails validation", func(t *testing.T) {
		_, err := repo.Register(ctx, &blog.User{
			Email:       "bob@example.com",
			DisplayName: "Bob",
		}, "secret1")
		require.Error(t, err)

		var rich *errors.Error
		require.True(t, errors.As(err, &rich))
		assert.Equal(t, errors.CategoryValidation, rich.Category)
	})

	t.Run("long display name fails validation", func(t *testing.T) {
		_, err := repo.Register(ctx, &blog.User{
			Email:       "bob@example.com",
			DisplayName: "BobTheBuilder99",
		}, "secret1")
		require.Error(t, err)

		var rich *errors.Error
		require.True(t, errors.As(err, &rich))
		assert.Equal(t, errors.CategoryValidation, rich.Category)
	})

	t.Run("short password fails validation", func(t *testing.T) {
		_, err := repo.Register(ctx, &blog.User{
			Email:       "bob@example.com",
			DisplayName: "Robert1",
		}, "12345")
		require.Error(t, err)

		var rich *errors.Error
		require.True(t, errors.As(err, &rich))
		assert.Equal(t, errors.CategoryValidation, rich.Category)
	})

	t.Run("malformed email fails validation", func(t *testing.T) {
		_, err := repo.Register(ctx, &blog.User{
			Email:       "not-an-email",
			DisplayName: "Robert1",
		}, "secret1")
		require.Error(t, err)

		var rich *errors.Error
		require.True(t, errors.As(err, &rich))
		assert.Equal(t, errors.CategoryValidation, rich.Category)
	})

	t.Run("pre-set password hash is rejected", func(t *testing.T) {
		_, err := repo.Register(ctx, &blog.User{
			Email:        "carol@example.com",
			DisplayName:  "Carol01",
			PasswordHash: "$2a$10$something",
		}, "secret1")
		assert.ErrorIs(t, err, blog.ErrPasswordAlreadyHashed)
	})
}

func TestUsersLookups(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewUsersRepository(db)
	ctx := context.Background()

	created := registerTestUser(t, repo, "alice@example.com", "Alice01", "secret1")

	t.Run("GetByEmail normalizes before matching", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, "  ALICE@example.com ")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("GetByEmail unknown address is a not found", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("GetByID round-trips", func(t *testing.T) {
		found, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", found.Email)
	})

	t.Run("GetByID unknown id is a not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestUsersTokenSet(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewUsersRepository(db)
	ctx := context.Background()

	created := registerTestUser(t, repo, "alice@example.com", "Alice01", "secret1")

	t.Run("GetByToken requires set membership", func(t *testing.T) {
		_, err := repo.GetByToken(ctx, created.ID, "token-a")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))

		require.NoError(t, repo.AddToken(ctx, created.ID, "token-a"))

		found, err := repo.GetByToken(ctx, created.ID, "token-a")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("RemoveToken revokes exactly the matching token", func(t *testing.T) {
		require.NoError(t, repo.AddToken(ctx, created.ID, "token-b"))

		require.NoError(t, repo.RemoveToken(ctx, created.ID, "token-a"))

		_, err := repo.GetByToken(ctx, created.ID, "token-a")
		assert.True(t, errors.IsNotFound(err))

		// the other session is untouched
		_, err = repo.GetByToken(ctx, created.ID, "token-b")
		assert.NoError(t, err)
	})

	t.Run("RemoveToken of an absent token is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.RemoveToken(ctx, created.ID, "never-added"))
		assert.NoError(t, repo.RemoveToken(ctx, created.ID, "token-a"))
	})

	t.Run("PruneTokens keeps only the newest sessions", func(t *testing.T) {
		require.NoError(t, repo.RemoveToken(ctx, created.ID, "token-b"))

		for i := 0; i < 5; i++ {
			require.NoError(t, repo.AddToken(ctx, created.ID, fmt.Sprintf("session-%d", i)))
		}

		require.NoError(t, repo.PruneTokens(ctx, created.ID, 2))

		count, err := repo.CountTokens(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		// the two newest survive
		_, err = repo.GetByToken(ctx, created.ID, "session-4")
		assert.NoError(t, err)
		_, err = repo.GetByToken(ctx, created.ID, "session-3")
		assert.NoError(t, err)
		_, err = repo.GetByToken(ctx, created.ID, "session-0")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestUsersPostHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewUsersRepository(db)
	ctx := context.Background()

	created := registerTestUser(t, repo, "alice@example.com", "Alice01", "secret1")

	postA := uuid.New()
	postB := uuid.New()

	require.NoError(t, repo.RecordPostVisit(ctx, created.ID, postA))
	require.NoError(t, repo.RecordPostVisit(ctx, created.ID, postB))

	// a repeat visit must not add a second entry
	require.NoError(t, repo.RecordPostVisit(ctx, created.ID, postA))

	history, err := repo.PostHistory(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestUsersChangePassword(t *testing.T) {
	db := setupTestDB(t)
	repo := blog.NewUsersRepository(db)
	ctx := context.Background()

	created := registerTestUser(t, repo, "alice@example.com", "Alice01", "secret1")

	require.NoError(t, repo.ChangePassword(ctx, created.ID, "newsecret"))

	updated, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Error(t, blog.ComparePasswordAndHash("secret1", updated.PasswordHash))
	assert.NoError(t, blog.ComparePasswordAndHash("newsecret", updated.PasswordHash))

	t.Run("unknown id is a not found", func(t *testing.T) {
		err := repo.ChangePassword(ctx, uuid.New(), "newsecret")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("short password fails validation", func(t *testing.T) {
		err := repo.ChangePassword(ctx, created.ID, "short")
		require.Error(t, err)

		var rich *errors.Error
		require.True(t, errors.As(err, &rich))
		assert.Equal(t, errors.CategoryValidation, rich.Category)
	})
}
