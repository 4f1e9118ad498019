package blog

import (
	"context"
	"reflect"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenStore persists the per-identity valid-token set. Add and remove are
// single-row operations so concurrent logins and logouts on one identity
// never lose an update.
type TokenStore interface {
	AddToken(ctx context.Context, userID uuid.UUID, token string) error
	RemoveToken(ctx context.Context, userID uuid.UUID, token string) error
	PruneTokens(ctx context.Context, userID uuid.UUID, keep int) error
}

type Auther struct {
	provider     IdentityProvider
	tokens       TokenStore
	tokenService TokenService
	maxSessions  int
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokens TokenStore, cfg Config) *Auther {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		tokens:       tokens,
		tokenService: tokenService,
		maxSessions:  cfg.GetMaxActiveSessions(),
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService sets a custom token service, mostly useful in tests
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	s.tokenService = ts
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials and issues a fresh token into the identity's
// valid set. Each call mints an independent token, which is how
// multi-device sessions work.
func (s *Auther) Login(ctx context.Context, email, password string) (Identity, string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return nil, "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Issue(ctx, identity)
	if err != nil {
		return nil, "", err
	}

	return identity, token, nil
}

// Issue signs a token for the identity and records it in the valid-token
// set. The persisted row is what makes the otherwise self-contained token
// revocable.
func (s *Auther) Issue(ctx context.Context, identity Identity) (string, error) {
	uid, err := uuid.Parse(identity.ID())
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "identity has a malformed id")
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Issue failed to generate token", "error", err)
		return "", err
	}

	if s.maxSessions > 0 {
		// make room for the incoming token, dropping oldest sessions first
		if err := s.tokens.PruneTokens(ctx, uid, s.maxSessions-1); err != nil {
			return "", errors.Wrap(err, errors.CategoryInternal, "failed to prune token set")
		}
	}

	if err := s.tokens.AddToken(ctx, uid, token); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to persist token")
	}

	return token, nil
}

// Logout removes exactly the presented token from the identity's valid
// set. Removing a token that is already gone is a no-op.
func (s *Auther) Logout(ctx context.Context, identity Identity, token string) error {
	uid, err := uuid.Parse(identity.ID())
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "identity has a malformed id")
	}

	if err := s.tokens.RemoveToken(ctx, uid, token); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to remove token")
	}

	return nil
}

// Resolve turns a presented token into an identity: signature first, then
// membership in the owning identity's valid set, then the store row. The
// failure causes stay distinguishable in logs but collapse to a single
// generic error outward, so a caller learns nothing from the shape of a
// rejection.
func (s *Auther) Resolve(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		s.logger.Debug("Resolve called without a token")
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Debug("Resolve token validation failed", "error", err)
		return nil, ErrUnauthenticated
	}

	identity, err := s.provider.FindIdentityByToken(ctx, claims.UserID(), raw)
	if err != nil {
		if errors.IsNotFound(err) || errors.Is(err, ErrTokenRevoked) {
			s.logger.Debug("Resolve token not in valid set", "user_id", claims.UserID())
			return nil, ErrUnauthenticated
		}
		s.logger.Error("Resolve identity lookup failed", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve identity")
	}

	return identity, nil
}
