package blog

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost trades login latency against brute-force resistance. Ten
// rounds keeps a login under ~100ms on current hardware.
const bcryptCost = 10

// HashPassword will generate a salted password hash. The salt is embedded
// in the output, so verification needs no separate salt storage.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if IsHashedPassword(password) {
		return "", ErrPasswordAlreadyHashed
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// IsHashedPassword reports whether s already carries a bcrypt prefix.
// Write paths use it so a stored hash is never hashed a second time.
func IsHashedPassword(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
