package auth

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Password length bounds for user accounts.
const (
	MinPasswordLen = 8
	MaxPasswordLen = 128
)

var (
	// ErrPasswordTooShort indicates the password is below MinPasswordLen.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordTooLong indicates the password exceeds MaxPasswordLen.
	ErrPasswordTooLong = errors.New("password too long")
)

// ValidatePassword checks length bounds on a new user password.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n < MinPasswordLen:
		return ErrPasswordTooShort
	case n > MaxPasswordLen:
		return ErrPasswordTooLong
	}
	return nil
}

// BasicCredentials is an email and password pair from an Authorization header.
type BasicCredentials struct {
	Email    string
	Password string
}

// BasicFromRequest extracts HTTP Basic credentials. The email is trimmed and
// lower-cased; ok is false when the header is absent or malformed.
func BasicFromRequest(r *http.Request) (BasicCredentials, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return BasicCredentials{}, false
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return BasicCredentials{}, false
	}

	email, password, found := strings.Cut(string(raw), ":")
	email = strings.ToLower(strings.TrimSpace(email))
	if !found || email == "" || password == "" {
		return BasicCredentials{}, false
	}

	return BasicCredentials{Email: email, Password: password}, true
}
