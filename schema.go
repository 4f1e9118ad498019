package blog

import (
	"context"

	"github.com/uptrace/bun"
)

// CreateSchema creates all tables and indexes if they do not exist yet.
// Uniqueness of email and display name is enforced here; the explicit
// pre-checks in the repositories exist only for clean error messages.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*AuthToken)(nil),
		(*PostVisit)(nil),
		(*Post)(nil),
		(*Comment)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	indexes := []struct {
		model   any
		name    string
		columns []string
	}{
		{(*AuthToken)(nil), "idx_auth_tokens_user_token", []string{"user_id", "token"}},
		{(*Post)(nil), "idx_posts_author", []string{"author"}},
		{(*Post)(nil), "idx_posts_category", []string{"category"}},
		{(*Post)(nil), "idx_posts_created_at", []string{"created_at"}},
		{(*Comment)(nil), "idx_post_comments_post", []string{"post_id"}},
	}

	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			IfNotExists().
			Column(idx.columns...).
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}
