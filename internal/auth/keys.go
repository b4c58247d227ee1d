package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// API keys look like sd_<env>_<prefix>_<secret>, for example
// sd_live_7a9f3c_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b. The prefix is stored in
// clear for lookup; only the argon2id hash of the whole key is kept.
const (
	keyScheme    = "sd"
	KeyPrefixLen = 6
	KeySecretLen = 32
)

// Key environments.
const (
	EnvLive = "live"
	EnvTest = "test"
)

// ErrInvalidKeyFormat is returned for strings that cannot be an API key.
var ErrInvalidKeyFormat = errors.New("invalid API key format")

// GeneratedKey is a new key before it is stored.
type GeneratedKey struct {
	Plaintext string // shown to the caller once
	Hash      string
	Prefix    string
}

// ParsedKey holds the fields of a well-formed key.
type ParsedKey struct {
	Env    string
	Prefix string
	Secret string
}

// GenerateAPIKey creates a key for env; anything other than EnvTest yields a
// live key.
func GenerateAPIKey(env string) (*GeneratedKey, error) {
	if env != EnvTest {
		env = EnvLive
	}

	raw := make([]byte, (KeyPrefixLen+KeySecretLen)/2)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	encoded := hex.EncodeToString(raw)
	prefix, secret := encoded[:KeyPrefixLen], encoded[KeyPrefixLen:]

	plaintext := strings.Join([]string{keyScheme, env, prefix, secret}, "_")
	hash, err := HashPassword(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &GeneratedKey{Plaintext: plaintext, Hash: hash, Prefix: prefix}, nil
}

// ParseAPIKey splits key into its fields or returns ErrInvalidKeyFormat.
func ParseAPIKey(key string) (*ParsedKey, error) {
	fields := strings.Split(key, "_")
	if len(fields) != 4 || fields[0] != keyScheme {
		return nil, ErrInvalidKeyFormat
	}
	if fields[1] != EnvLive && fields[1] != EnvTest {
		return nil, ErrInvalidKeyFormat
	}
	if !isLowerHex(fields[2], KeyPrefixLen) || !isLowerHex(fields[3], KeySecretLen) {
		return nil, ErrInvalidKeyFormat
	}
	return &ParsedKey{Env: fields[1], Prefix: fields[2], Secret: fields[3]}, nil
}

// ValidateKeyFormat reports whether key is a well-formed API key.
func ValidateKeyFormat(key string) bool {
	_, err := ParseAPIKey(key)
	return err == nil
}

func isLowerHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
