package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the single admin account.
// PasswordHash, when set, is a bcrypt hash and takes precedence over Password.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// Check reports whether username and password match the admin account
func (c Credentials) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1

	var passOK bool
	if strings.TrimSpace(c.PasswordHash) != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}
	return userOK && passOK
}

// HashPassword returns a bcrypt hash suitable for Credentials.PasswordHash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
