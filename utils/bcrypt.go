package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordHashMissing = errors.New("password hash is not configured")

func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

func ComparePassword(hashed string, normal string) error {
	if hashed == "" {
		return ErrPasswordHashMissing
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}
