package blog

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultPostCategory is used when a post is created without one
const DefaultPostCategory = "General"

// Posts is the post store
type Posts interface {
	Publish(ctx context.Context, record *Post) (*Post, error)
	PublishTx(ctx context.Context, tx bun.IDB, record *Post) (*Post, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	List(ctx context.Context) ([]*Post, error)
	Search(ctx context.Context, query string) ([]*Post, error)

	UpdateFields(ctx context.Context, id uuid.UUID, fields PostUpdate) (*Post, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error

	AddComment(ctx context.Context, postID uuid.UUID, comment *Comment) (*Comment, error)
	RemoveComment(ctx context.Context, postID, commentID uuid.UUID) error
}

// PostUpdate carries the mutable post fields. Author is deliberately
// absent: ownership is immutable after creation.
type PostUpdate struct {
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Body     string `json:"body,omitempty"`
}

type posts struct {
	repository.Repository[*Post]
	db *bun.DB
}

var _ Posts = (*posts)(nil)

func NewPostsRepository(db *bun.DB) Posts {
	repo := repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &posts{
		Repository: repo,
		db:         db,
	}
}

func (a *posts) Publish(ctx context.Context, record *Post) (*Post, error) {
	return a.PublishTx(ctx, a.db, record)
}

func (a *posts) PublishTx(ctx context.Context, tx bun.IDB, record *Post) (*Post, error) {
	if record == nil {
		return nil, errors.New("post record must not be nil", errors.CategoryBadInput)
	}

	preparePostDefaults(record)

	if err := validatePost(record); err != nil {
		return nil, err
	}

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create post")
	}

	return created, nil
}

func (a *posts) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	record := &Post{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Comments").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *posts) List(ctx context.Context) ([]*Post, error) {
	var records []*Post
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Search matches title or author by case-insensitive substring, newest
// first. Empty queries return an empty result, not the full listing.
func (a *posts) Search(ctx context.Context, query string) ([]*Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Post{}, nil
	}

	pattern := "%" + strings.ToLower(query) + "%"

	var records []*Post
	err := a.db.NewSelect().
		Model(&records).
		Where("lower(?TableAlias.title) LIKE ? OR lower(?TableAlias.author) LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *posts) UpdateFields(ctx context.Context, id uuid.UUID, fields PostUpdate) (*Post, error) {
	record, err := a.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields.Title != "" {
		record.Title = strings.TrimSpace(fields.Title)
	}
	if fields.Category != "" {
		record.Category = strings.TrimSpace(fields.Category)
	}
	if fields.Body != "" {
		record.Body = strings.TrimSpace(fields.Body)
	}

	if err := validatePost(record); err != nil {
		return nil, err
	}

	_, err = a.db.NewUpdate().
		Model(record).
		Column("title", "category", "body").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not update post")
	}

	return record, nil
}

// DeleteByID removes the post and its comments in one transaction, so a
// failure part way through never leaves orphaned comment rows.
func (a *posts) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*Post)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}

		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return ErrPostNotFound
		}

		_, err = tx.NewDelete().
			Model((*Comment)(nil)).
			Where("post_id = ?", id).
			Exec(ctx)
		return err
	})
}

func (a *posts) AddComment(ctx context.Context, postID uuid.UUID, comment *Comment) (*Comment, error) {
	if comment == nil {
		return nil, errors.New("comment must not be nil", errors.CategoryBadInput)
	}

	if _, err := a.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment.PostID = postID
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.CreatedAt == nil {
		now := time.Now()
		comment.CreatedAt = &now
	}

	if err := validateComment(comment); err != nil {
		return nil, err
	}

	if _, err := a.db.NewInsert().Model(comment).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create comment")
	}

	return comment, nil
}

// RemoveComment deletes a single comment row. The post must exist; a
// missing comment is a no-op, matching token-set removal semantics.
func (a *posts) RemoveComment(ctx context.Context, postID, commentID uuid.UUID) error {
	exists, err := a.db.NewSelect().
		Model((*Post)(nil)).
		Where("?TableAlias.id = ?", postID).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return ErrPostNotFound
	}

	_, err = a.db.NewDelete().
		Model((*Comment)(nil)).
		Where("post_id = ?", postID).
		Where("id = ?", commentID).
		Exec(ctx)
	return err
}

func preparePostDefaults(record *Post) {
	if record == nil {
		return
	}

	record.Title = strings.TrimSpace(record.Title)
	record.Body = strings.TrimSpace(record.Body)
	record.Category = strings.TrimSpace(record.Category)

	if record.Category == "" {
		record.Category = DefaultPostCategory
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func validatePost(record *Post) error {
	err := validation.ValidateStruct(record,
		validation.Field(
			&record.Title,
			validation.Required,
			validation.Length(4, 60),
		),
		validation.Field(
			&record.Category,
			validation.Required,
			validation.Length(4, 16),
		),
		validation.Field(
			&record.Body,
			validation.Required,
			validation.Length(24, 13468),
		),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, err.Error()).
			WithTextCode("VALIDATION_FAILED")
	}
	return nil
}

func validateComment(record *Comment) error {
	err := validation.ValidateStruct(record,
		validation.Field(
			&record.Body,
			validation.Required,
			validation.Length(8, 128),
		),
		validation.Field(
			&record.CreatedBy,
			validation.Required,
		),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, err.Error()).
			WithTextCode("VALIDATION_FAILED")
	}
	return nil
}
