package local

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrWeakPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePassword validates that the cleartext password matches hash.
func ComparePassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrWrongPassword
		}
		return withCause(ErrWrongPassword, err)
	}
	return nil
}

// randomPasswordHash is stored for federated accounts, so password sign in
// never succeeds for them.
func randomPasswordHash(cost int) string {
	h, err := HashPassword(uuid.NewString(), cost)
	if err != nil {
		return randomPasswordHash(cost)
	}
	return h
}
