package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword occurs when a registration password is too short.
var ErrWeakPassword = errors.New("password must be at least 6 characters")

// ErrInvalidCredentials occurs when a login password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword validates and bcrypt-hashes a raw password. The raw value is
// never stored anywhere.
func HashPassword(password string) ([]byte, error) {
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// VerifyPassword compares a stored hash against a candidate password.
func VerifyPassword(hash []byte, password string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
