package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// CheckPassword compares a password with a stored hash. Accounts created
// before hashing was introduced hold the plain password; those match
// directly and report needsRehash.
func CheckPassword(stored, password string) (ok, needsRehash bool) {
	if !isBcryptHash(stored) {
		match := subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
		return match, match
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
}
