package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to self-registered census accounts.
const MinPasswordLength = 8

var ErrInvalidCredentials = errors.New("invalid username or password")

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. An empty hash (no
// such user) still pays for one bcrypt comparison and never matches.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash keeps unknown-user logins as slow as wrong-password logins.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("nacp-dummy-password"), bcrypt.MinCost)

// Credentials is the admin dashboard's username to bcrypt hash map.
type Credentials map[string]string

// NewCredentials hashes any plain-text passwords in m. Values already in
// bcrypt form ("$2a$", "$2b$", "$2y$") are kept as-is.
func NewCredentials(m map[string]string) (Credentials, error) {
	c := make(Credentials, len(m))
	for user, pass := range m {
		user = strings.ToLower(strings.TrimSpace(user))
		if strings.HasPrefix(pass, "$2") {
			c[user] = pass
			continue
		}
		hash, err := HashPassword(pass)
		if err != nil {
			return nil, fmt.Errorf("admin %s: %w", user, err)
		}
		c[user] = hash
	}
	return c, nil
}

// Check returns the canonical username when password matches.
func (c Credentials) Check(username, password string) (string, error) {
	user := strings.ToLower(strings.TrimSpace(username))
	hash, ok := c[user]
	if !ok {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if !CheckPassword(hash, password) {
		return "", ErrInvalidCredentials
	}
	return user, nil
}
