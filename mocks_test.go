package blog_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	blog "github.com/inkpress/go-blog"
)

// testIdentity is a plain Identity value for test fixtures
type testIdentity struct {
	id          string
	email       string
	displayName string
	role        string
}

func (i testIdentity) ID() string          { return i.id }
func (i testIdentity) Email() string       { return i.email }
func (i testIdentity) DisplayName() string { return i.displayName }
func (i testIdentity) Role() string        { return i.role }

// MockIdentityProvider implements blog.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (blog.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(blog.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (blog.Identity, error) {
	args := m.Called(ctx, id)
	identity, _ := args.Get(0).(blog.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByToken(ctx context.Context, id, token string) (blog.Identity, error) {
	args := m.Called(ctx, id, token)
	identity, _ := args.Get(0).(blog.Identity)
	return identity, args.Error(1)
}

// MockTokenStore implements blog.TokenStore
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) AddToken(ctx context.Context, userID uuid.UUID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockTokenStore) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockTokenStore) PruneTokens(ctx context.Context, userID uuid.UUID, keep int) error {
	args := m.Called(ctx, userID, keep)
	return args.Error(0)
}

// testConfig implements blog.Config
type testConfig struct {
	signingKey  string
	issuer      string
	tokenHeader string
	maxSessions int
}

func (c testConfig) GetSigningKey() string     { return c.signingKey }
func (c testConfig) GetIssuer() string         { return c.issuer }
func (c testConfig) GetTokenHeader() string    { return c.tokenHeader }
func (c testConfig) GetMaxActiveSessions() int { return c.maxSessions }
