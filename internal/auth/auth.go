// Package auth implements the shared-secret token scheme used by the API.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashToken produces a bcrypt hash suitable for auth.token_hash.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

// VerifyToken reports whether the clear-text token matches the stored hash.
func VerifyToken(hash, token string) bool {
	if hash == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
