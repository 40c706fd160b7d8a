// Package auth implements password hashing and the session-cookie
// middleware protecting the API.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100_000
	saltBytes        = 16
	keyBytes         = sha256.Size
)

// HashPassword derives a PBKDF2-HMAC-SHA256 hash of the password with a
// fresh random salt. Both return values are hex-encoded; the salt's hex
// form (not the raw bytes) is what the derivation consumes, so stored
// salts round-trip without decoding.
func HashPassword(password string) (hash, salt string) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		panic("auth: crypto/rand unavailable: " + err.Error())
	}
	salt = hex.EncodeToString(raw)
	return hashWithSalt(password, salt), salt
}

// VerifyPassword reports whether the password matches the stored hash in
// constant time.
func VerifyPassword(password, salt, wantHash string) bool {
	got := hashWithSalt(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(wantHash)) == 1
}

func hashWithSalt(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, keyBytes, sha256.New)
	return hex.EncodeToString(key)
}
