package blog

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// NormalizeEmail lower-cases and trims an email before any lookup or
// insert, so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateNewUser runs the identity field rules: well-formed email and a
// display name between 6 and 12 characters.
func ValidateNewUser(u *User) error {
	err := validation.ValidateStruct(u,
		validation.Field(
			&u.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&u.DisplayName,
			validation.Required,
			validation.Length(6, 12),
		),
		validation.Field(
			&u.Role,
			validation.Required,
			validation.In(RoleUser, RoleAdmin),
		),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, err.Error()).
			WithTextCode("VALIDATION_FAILED")
	}
	return nil
}

// ValidatePassword checks plaintext password constraints before hashing
func ValidatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required,
		validation.Length(6, 0),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "password: "+err.Error()).
			WithTextCode("VALIDATION_FAILED")
	}
	return nil
}
