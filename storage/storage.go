package storage

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by ResetTokenStore implementations.
// Implementations wrap these with %w so callers can use errors.Is.
var (
	// ErrTokenNotFound indicates no live record exists for the presented hash.
	// This covers never-issued tokens and tokens already consumed by an
	// earlier request.
	ErrTokenNotFound = errors.New("reset token not found")

	// ErrTokenExpired indicates a record existed but its expiry had passed.
	// The record is removed as a side effect of the lookup (lazy expiry).
	ErrTokenExpired = errors.New("reset token expired")
)

// ResetRequest is a pending password reset held by the store.
// It is keyed by TokenHash; the raw bearer secret is never persisted.
// Records are immutable after insertion and destroyed on first consumption,
// on expiry detected during a read, or by a background sweep.
type ResetRequest struct {
	// TokenHash is the hex-encoded one-way digest of the raw reset token.
	TokenHash string

	// UserID is the identity provider account the reset applies to.
	UserID string

	// Email is the normalized address the reset link was sent to.
	Email string

	// CreatedAt is when the token was issued.
	CreatedAt time.Time

	// ExpiresAt is the instant after which the token is no longer valid.
	// Set by the store from the TTL passed to Put.
	ExpiresAt time.Time
}

// ResetTokenStore is an expiring, single-use registry of pending reset requests.
//
// A user may request several overlapping resets for the same account; each
// raw token is independent and stays valid until its own expiry or first use.
// All methods accept context.Context for tracing and cancellation.
type ResetTokenStore interface {
	// Put inserts a reset request under its token hash with the given TTL.
	// Overwriting an existing hash is allowed; distinct random tokens make
	// collisions between concurrent independent requests a non-issue.
	Put(ctx context.Context, record *ResetRequest, ttl time.Duration) error

	// TakeIfValid atomically removes and returns the record for tokenHash.
	// Returns ErrTokenNotFound if absent, or ErrTokenExpired if present but
	// past its expiry (the expired record is removed).
	//
	// SECURITY: This operation MUST be atomic with respect to concurrent
	// callers presenting the same hash - at most one caller ever receives
	// the record; all others get ErrTokenNotFound. This is what prevents a
	// password reset link from being replayed by a racing second request.
	TakeIfValid(ctx context.Context, tokenHash string) (*ResetRequest, error)

	// Sweep removes all expired records and returns how many were dropped.
	// Never required for correctness (expiry is enforced lazily on read),
	// only for bounded memory use. Safe to call at any time.
	Sweep(ctx context.Context) int

	// Len reports the number of live records, including not-yet-swept
	// expired ones. Intended for metrics and tests.
	Len() int

	// Close releases background resources such as sweep goroutines.
	Close() error
}
