package blog

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the decoded token payload: an immutable snapshot of the
// identity taken at issuance. Role and display name here are fast-path
// hints only; authorization always re-reads the store.
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	DisplayName() string
	IssuedAt() time.Time
}

// TokenClaims is the concrete implementation of AuthClaims. Tokens carry
// no expiry claim: they die by revocation (set removal) or by rotating
// the signing secret, never by the clock.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
	Name     string `json:"display_name,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*TokenClaims)(nil)

// Subject returns the subject claim
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the role snapshot embedded at issuance
func (c *TokenClaims) Role() string {
	return c.UserRole
}

// DisplayName returns the display name snapshot embedded at issuance
func (c *TokenClaims) DisplayName() string {
	return c.Name
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
