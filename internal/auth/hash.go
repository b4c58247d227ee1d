// Package auth holds the credential primitives shared by the API and
// shelfctl: argon2id hashing for passwords and API keys, key generation and
// the request auth context.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidHash is returned for strings that are not argon2id PHC hashes.
	ErrInvalidHash = errors.New("invalid hash format")
	// ErrIncompatibleVersion is returned for hashes from another argon2 version.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Params are the argon2id cost settings recorded in every hash.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultParams is used for new hashes. Verification always uses the
// parameters stored in the hash, so these can be raised without a migration.
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 4, KeyLen: 32}

const saltLen = 16

var b64 = base64.RawStdEncoding

// phcHash is the decoded form of
// $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>.
type phcHash struct {
	params Params
	salt   []byte
	key    []byte
}

func (h phcHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Threads,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func parsePHC(encoded string) (phcHash, error) {
	var h phcHash

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return h, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return h, ErrInvalidHash
	}
	if version != argon2.Version {
		return h, ErrIncompatibleVersion
	}

	p := &h.params
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return h, ErrInvalidHash
	}

	var err error
	if h.salt, err = b64.DecodeString(fields[4]); err != nil {
		return h, ErrInvalidHash
	}
	if h.key, err = b64.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return h, ErrInvalidHash
	}
	p.KeyLen = uint32(len(h.key))
	return h, nil
}

// Hash derives a PHC-encoded argon2id hash of secret with a fresh salt.
func (p Params) Hash(secret string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	h := phcHash{
		params: p,
		salt:   salt,
		key:    argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Threads, p.KeyLen),
	}
	return h.String(), nil
}

// HashPassword hashes a user password or API key with DefaultParams.
func HashPassword(password string) (string, error) {
	return DefaultParams.Hash(password)
}

// VerifyPassword reports whether password matches encodedHash. A mismatch is
// not an error; a malformed hash is.
func VerifyPassword(password, encodedHash string) (bool, error) {
	h, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	p := h.params
	computed := argon2.IDKey([]byte(password), h.salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(computed, h.key) == 1, nil
}

// QuickHash is a fast digest used to key the auth cache. Never store it as
// a credential hash.
func QuickHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:16])
}
