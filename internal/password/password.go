// Package password derives and verifies password hashes. PBKDF2-SHA256 with a
// per-user random salt; verification compares in constant time.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"

	derrors "passbuy/pkg/domain-errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen    = 16
	keyLen     = 32
	iterations = 100_000
)

// Hash derives a key from the password with a fresh random salt. Both buffers
// are returned for storage; neither is reused across calls.
func Hash(password string) (key, salt []byte, err error) {
	salt = make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, derrors.Wrap(err, derrors.CodeInternal, "generate salt")
	}
	key = pbkdf2.Key([]byte(password), salt, iterations, keyLen, sha256.New)
	return key, salt, nil
}

// Verify re-derives the key with the stored salt and compares it to the stored
// key in constant time.
func Verify(password string, storedKey, storedSalt []byte) (bool, error) {
	if len(storedSalt) != saltLen {
		return false, derrors.New(derrors.CodeValidation, "stored salt has invalid length")
	}
	derived := pbkdf2.Key([]byte(password), storedSalt, iterations, keyLen, sha256.New)
	return subtle.ConstantTimeCompare(derived, storedKey) == 1, nil
}
