package blog

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the credential store: account records plus the per-identity
// valid-token set and post visit history. Lookups are uuid-keyed, so the
// generic string-identifier repository surface stays an implementation
// detail of the struct rather than part of the contract.
type Users interface {
	Register(ctx context.Context, record *User, password string) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *User, password string) (*User, error)

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByToken(ctx context.Context, id uuid.UUID, token string) (*User, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*User, error)

	AddToken(ctx context.Context, userID uuid.UUID, token string) error
	RemoveToken(ctx context.Context, userID uuid.UUID, token string) error
	PruneTokens(ctx context.Context, userID uuid.UUID, keep int) error
	CountTokens(ctx context.Context, userID uuid.UUID) (int, error)

	RecordPostVisit(ctx context.Context, userID, postID uuid.UUID) error
	PostHistory(ctx context.Context, userID uuid.UUID) ([]*PostVisit, error)

	ChangePassword(ctx context.Context, id uuid.UUID, password string) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users      = (*users)(nil)
	_ TokenStore = (*users)(nil)
	_ UserFinder = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, record *User, password string) (*User, error) {
	return a.RegisterTx(ctx, a.db, record, password)
}

// RegisterTx validates, hashes, and inserts a new identity. Uniqueness is
// enforced twice: an explicit pre-check for a clean error message, and the
// unique indexes as a backstop for the check-then-insert race. Both paths
// surface the same duplicate error.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, record *User, password string) (*User, error) {
	if record == nil {
		return nil, errors.New("user record must not be nil", errors.CategoryBadInput)
	}

	if record.PasswordHash != "" {
		return nil, ErrPasswordAlreadyHashed
	}

	prepareUserDefaults(record)
	record.Email = NormalizeEmail(record.Email)

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	if err := ValidateNewUser(record); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	record.PasswordHash = hash

	taken, err := tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ? OR ?TableAlias.display_name = ?", record.Email, record.DisplayName).
		Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed duplicate identity pre-check")
	}
	if taken {
		return nil, ErrDuplicateIdentity
	}

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			// lost the check-then-insert race, same outward error
			return nil, ErrDuplicateIdentity
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create user")
	}

	return created, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByToken(ctx context.Context, id uuid.UUID, token string) (*User, error) {
	return a.GetByTokenTx(ctx, a.db, id, token)
}

// GetByTokenTx loads a user only when the presented token is still in its
// valid set, mirroring a lookup keyed on both the id and the token row.
func (a *users) GetByTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Join("JOIN auth_tokens AS tok ON tok.user_id = ?TableAlias.id").
		Where("?TableAlias.id = ?", id).
		Where("tok.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

// AddToken appends to the valid-token set. A single INSERT, so two
// concurrent logins cannot clobber each other. Duplicates are allowed;
// each row is independently revocable.
func (a *users) AddToken(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := a.db.NewInsert().
		Model(&AuthToken{
			UserID:    userID,
			Token:     token,
			CreatedAt: time.Now(),
		}).
		Exec(ctx)
	return err
}

// RemoveToken deletes the matching token rows. Absent rows are a no-op,
// not an error, which makes logout idempotent.
func (a *users) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := a.db.NewDelete().
		Model((*AuthToken)(nil)).
		Where("user_id = ?", userID).
		Where("token = ?", token).
		Exec(ctx)
	return err
}

// PruneTokens drops all but the newest `keep` tokens for the user
func (a *users) PruneTokens(ctx context.Context, userID uuid.UUID, keep int) error {
	if keep < 0 {
		keep = 0
	}

	_, err := a.db.NewDelete().
		Model((*AuthToken)(nil)).
		Where("user_id = ?", userID).
		Where("id NOT IN (SELECT id FROM auth_tokens WHERE user_id = ? ORDER BY id DESC LIMIT ?)", userID, keep).
		Exec(ctx)
	return err
}

func (a *users) CountTokens(ctx context.Context, userID uuid.UUID) (int, error) {
	return a.db.NewSelect().
		Model((*AuthToken)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}

// RecordPostVisit upserts the (user, post) pair: first visit inserts,
// repeat visits only bump the timestamp. History stays deduplicated by
// post id without a read-modify-write.
func (a *users) RecordPostVisit(ctx context.Context, userID, postID uuid.UUID) error {
	visit := &PostVisit{
		UserID:    userID,
		PostID:    postID,
		VisitedAt: time.Now(),
	}

	_, err := a.db.NewInsert().
		Model(visit).
		On("CONFLICT (user_id, post_id) DO UPDATE").
		Set("visited_at = EXCLUDED.visited_at").
		Exec(ctx)
	return err
}

func (a *users) PostHistory(ctx context.Context, userID uuid.UUID) ([]*PostVisit, error) {
	var visits []*PostVisit
	err := a.db.NewSelect().
		Model(&visits).
		Where("user_id = ?", userID).
		Order("visited_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return visits, nil
}

// ChangePassword re-hashes and stores a new password. This is the only
// update path that touches password_hash; regular record updates never
// write the column, so a stored hash cannot be hashed twice.
func (a *users) ChangePassword(ctx context.Context, id uuid.UUID, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", hash).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return recordNotFound(map[string]any{"id": id.String()})
	}

	return nil
}

// recordNotFound builds the not-found error surfaced by uuid-keyed lookups
func recordNotFound(meta map[string]any) *errors.Error {
	return errors.New("record not found", errors.CategoryNotFound).
		WithTextCode("RECORD_NOT_FOUND").
		WithMetadata(meta)
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
