package security

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/oauth2"
)

// NewResetToken generates a new password reset token.
//
// The raw secret is a cryptographically random, URL-safe string carrying 256
// bits of entropy (32 random bytes, base64url-encoded). It is embedded in the
// reset link and shown to the user exactly once. The returned hash is the
// storage key; the raw secret must never be persisted or logged.
func NewResetToken() (raw, hash string) {
	raw = oauth2.GenerateVerifier()
	return raw, DigestResetToken(raw)
}

// DigestResetToken computes the deterministic one-way digest of a raw reset
// token, hex-encoded. Presented tokens are hashed with this before any store
// lookup, so stores only ever see digests.
func DigestResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
