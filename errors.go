package blog

import (
	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials is returned on any credential failure. Wrong email
// and wrong password share one outward message on purpose.
var ErrInvalidCredentials = errors.New(
	"the email or password you entered is incorrect",
	errors.CategoryAuth,
).WithTextCode("INVALID_CREDENTIALS")

// ErrUnauthenticated is the single caller-facing error for a missing,
// malformed, tampered, or revoked token.
var ErrUnauthenticated = errors.New(
	"please authenticate",
	errors.CategoryAuth,
).WithTextCode("UNAUTHENTICATED")

// ErrUnauthorized means the identity is known but lacks role or ownership
var ErrUnauthorized = errors.New(
	"you are not authorized to perform this request",
	errors.CategoryAuthz,
).WithTextCode("UNAUTHORIZED")

// ErrDuplicateIdentity covers email and display name collisions alike
var ErrDuplicateIdentity = errors.New(
	"email or display name is already in use",
	errors.CategoryConflict,
).WithTextCode("DUPLICATE_IDENTITY")

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New(
	"identity not found",
	errors.CategoryNotFound,
).WithTextCode("IDENTITY_NOT_FOUND")

// ErrPostNotFound is the error we return for non found posts
var ErrPostNotFound = errors.New(
	"post not found",
	errors.CategoryNotFound,
).WithTextCode("POST_NOT_FOUND")

// ErrMismatchedHashAndPassword is the internal password-compare failure
var ErrMismatchedHashAndPassword = errors.New(
	"mismatched hash and password",
	errors.CategoryAuth,
).WithTextCode("PASSWORD_MISMATCH")

// ErrNoEmptyString rejects empty plaintext input to the hasher
var ErrNoEmptyString = errors.New(
	"value must not be an empty string",
	errors.CategoryValidation,
).WithTextCode("EMPTY_STRING")

// ErrPasswordAlreadyHashed guards against double-hashing a stored hash
var ErrPasswordAlreadyHashed = errors.New(
	"password hash already set",
	errors.CategoryValidation,
).WithTextCode("PASSWORD_ALREADY_HASHED")

// Internal diagnostics for token resolution. These never reach a client;
// Resolve collapses all of them into ErrUnauthenticated.
var (
	ErrTokenMissing = errors.New(
		"no token provided",
		errors.CategoryAuth,
	).WithTextCode("TOKEN_MISSING")

	ErrTokenMalformed = errors.New(
		"token is malformed or signature is invalid",
		errors.CategoryAuth,
	).WithTextCode("TOKEN_MALFORMED")

	ErrTokenRevoked = errors.New(
		"token is not in the identity's valid set",
		errors.CategoryAuth,
	).WithTextCode("TOKEN_REVOKED")
)

// IsAuthenticationError reports whether err maps to a 401-class response
func IsAuthenticationError(err error) bool {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.Category == errors.CategoryAuth
}

// IsAuthorizationError reports whether err maps to a 403-class response
func IsAuthorizationError(err error) bool {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.Category == errors.CategoryAuthz
}
