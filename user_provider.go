package blog

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UserFinder is the slice of the user store the provider needs
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByToken(ctx context.Context, id uuid.UUID, token string) (*User, error)
}

// UserProvider resolves identities against the user store
type UserProvider struct {
	store  UserFinder
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserFinder) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = l
	return u
}

// VerifyIdentity will find the user by email, compare the password, and
// return the identity. Unknown email and wrong password both come back as
// ErrInvalidCredentials so the caller cannot tell which check failed.
func (u UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
	}

	return identityFromUser(user), nil
}

// FindIdentityByID loads an identity by its id
func (u UserProvider) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrIdentityNotFound
	}

	user, err := u.store.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	return identityFromUser(user), nil
}

// FindIdentityByToken loads an identity only if the presented token is
// still a member of its valid-token set. This is the stateful half of the
// double check that makes revocation work.
func (u UserProvider) FindIdentityByToken(ctx context.Context, id, token string) (Identity, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrIdentityNotFound
	}

	user, err := u.store.GetByToken(ctx, uid, token)
	if err != nil {
		return nil, err
	}

	return identityFromUser(user), nil
}

// IdentityFromUser adapts a stored user row into an Identity value
func IdentityFromUser(user *User) Identity {
	return identityFromUser(user)
}

type authIdentity struct {
	id          string
	email       string
	displayName string
	role        string
}

func identityFromUser(user *User) authIdentity {
	return authIdentity{
		id:          user.ID.String(),
		email:       user.Email,
		displayName: user.DisplayName,
		role:        string(user.Role),
	}
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) DisplayName() string {
	return a.displayName
}

func (a authIdentity) Role() string {
	return a.role
}

var _ Identity = authIdentity{}
