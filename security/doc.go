// Package security provides security-related functionality for the credential
// lifecycle service: the reset token codec, temporary password generation,
// per-IP rate limiting, admin key verification, and audit logging.
//
// # Reset tokens
//
// Reset tokens are opaque bearer capabilities. NewResetToken produces a raw
// secret with 256 bits of entropy plus its one-way digest; only the digest is
// ever stored or logged, so a disclosure of server state does not leak usable
// tokens. DigestResetToken recomputes the digest when a token is presented.
//
// # Rate limiting
//
// The RateLimiter provides per-identifier rate limiting using a token bucket
// algorithm with LRU eviction to bound memory under distributed abuse. The
// forgot-password endpoint is the main consumer: reset issuance triggers
// outbound mail, so it must not be drivable at line rate.
//
//	limiter := security.NewRateLimiter(10, 20, logger)
//	defer limiter.Stop()
//
//	if !limiter.Allow(clientIP) {
//	    // 429
//	}
//
// # Admin key
//
// AdminKey guards the /admin endpoints. The configured token is stored only
// as a bcrypt hash, and verification always performs exactly one bcrypt
// comparison (against a dummy hash when no key is configured) so response
// timing does not reveal whether a key is set.
package security
