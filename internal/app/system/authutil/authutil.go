// Package authutil holds password hashing and church-email helpers shared by
// registration, login, and the user store.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jcsgo/shepherd/internal/app/system/normalize"
)

// emailSuffix is the organization-wide email domain. Addresses of the form
// <user>@<church>.jcsgo.com carry their church in the host part.
const emailSuffix = ".jcsgo.com"

// MinPasswordLength is enforced at registration and password change.
const MinPasswordLength = 8

var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored
// bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ChurchDomainFromEmail extracts the church domain from an organization
// email address. "maria@kasiglahan.jcsgo.com" yields ("kasiglahan", true).
// Addresses outside the organization domain yield ("", false).
func ChurchDomainFromEmail(email string) (string, bool) {
	email = normalize.Email(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "", false
	}
	host := email[at+1:]
	if !strings.HasSuffix(host, emailSuffix) {
		return "", false
	}
	domain := strings.TrimSuffix(host, emailSuffix)
	if domain == "" || strings.Contains(domain, ".") {
		return "", false
	}
	return domain, true
}
