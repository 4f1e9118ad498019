// Package authware provides fiber middleware that resolves the x-auth
// token into an identity and optionally gates on role. Authentication is
// always evaluated before authorization: a caller with a bad token gets
// the same generic rejection whether or not the route, the resource, or
// the required role exists.
package authware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	blog "github.com/inkpress/go-blog"
)

// DefaultContextKey is the fiber locals key holding the resolved identity
const DefaultContextKey = "identity"

// TokenContextKey is the fiber locals key holding the presented raw token
const TokenContextKey = "identity_token"

// IdentityResolver validates a presented token and loads its identity
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (blog.Identity, error)
}

type Config struct {
	// Resolver is required
	Resolver IdentityResolver
	// Filter skips the middleware when it returns true
	Filter func(*fiber.Ctx) bool
	// ErrorHandler renders authentication/authorization failures
	ErrorHandler func(*fiber.Ctx, error) error
	// TokenHeader is the header carrying the token, defaults to x-auth
	TokenHeader string
	// ContextKey is the locals key for the identity
	ContextKey string
	// RequiredRole, when set, rejects identities without an exact role
	// match after authentication succeeds. The role comes from the store
	// row loaded during resolution, never from the token payload.
	RequiredRole string
}

func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw := c.Get(cfg.TokenHeader)
		if raw == "" {
			return cfg.ErrorHandler(c, blog.ErrUnauthenticated)
		}

		identity, err := cfg.Resolver.Resolve(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if cfg.RequiredRole != "" && identity.Role() != cfg.RequiredRole {
			return cfg.ErrorHandler(c, blog.ErrUnauthorized)
		}

		c.Locals(cfg.ContextKey, identity)
		c.Locals(TokenContextKey, raw)

		ctx := blog.WithIdentityContext(c.UserContext(), identity)
		ctx = blog.WithTokenContext(ctx, raw)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func configDefault(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolver == nil {
		panic("AUTH: middleware configuration: IdentityResolver is required.")
	}

	if cfg.TokenHeader == "" {
		cfg.TokenHeader = blog.DefaultTokenHeader
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return cfg
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	if blog.IsAuthorizationError(err) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": blog.ErrUnauthorized.Message,
		})
	}

	if blog.IsAuthenticationError(err) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": blog.ErrUnauthenticated.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}

// IdentityFromCtx returns the identity stored by the middleware
func IdentityFromCtx(c *fiber.Ctx, key ...string) (blog.Identity, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}

	identity, ok := c.Locals(k).(blog.Identity)
	return identity, ok
}

// TokenFromCtx returns the raw token stored by the middleware
func TokenFromCtx(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals(TokenContextKey).(string)
	return token, ok
}
