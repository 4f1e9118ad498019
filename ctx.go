package blog

import (
	"context"
)

var identityCtxKey = &contextKey{"identity"}
var tokenCtxKey = &contextKey{"token"}

type contextKey struct {
	name string
}

// WithIdentityContext sets the resolved Identity in the given context
func WithIdentityContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(Identity)
	return raw, ok
}

// WithTokenContext sets the presented raw token in the given context
func WithTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey, token)
}

// TokenFromContext finds the raw token from the context.
func TokenFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(tokenCtxKey).(string)
	return raw, ok
}

// IsOwner is the ownership predicate: a resource may be mutated by the
// identity whose display name matches the resource's recorded owner.
func IsOwner(identity Identity, resourceOwner string) bool {
	if identity == nil {
		return false
	}
	return identity.DisplayName() == resourceOwner
}
