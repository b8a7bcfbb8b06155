// Package password derives and verifies salted password hashes.
//
// The stored form is "<salt>$<digest>" where salt is 16 hex characters (8
// random bytes) and digest is the hex SHA-256 of salt concatenated with the
// password. The separator never occurs in the hex alphabet, so splitting on
// the first "$" recovers both parts.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// SaltBytes is the amount of salt entropy per hash.
	SaltBytes = 8
	// Separator joins salt and digest in the stored form.
	Separator = "$"
)

// Hash returns the stored form for password using a fresh random salt.
func Hash(password string) (string, error) {
	buf := make([]byte, SaltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	salt := hex.EncodeToString(buf)
	return salt + Separator + digest(salt, password), nil
}

// Verify reports whether password matches the stored form. Malformed stored
// forms never match.
func Verify(password, stored string) bool {
	salt, want, ok := strings.Cut(stored, Separator)
	if !ok {
		return false
	}

	got := digest(salt, password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func digest(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}
