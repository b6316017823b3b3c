// Package providers defines the identity provider abstraction used by the
// credential lifecycle service, and houses the concrete adapters.
//
// A Provider owns the authoritative account records. This service never
// stores accounts itself; every lookup and mutation goes through the
// configured adapter, which keeps the service swappable between identity
// backends without touching the lifecycle logic.
package providers

import (
	"context"
	"errors"
)

// ErrAccountNotFound is returned by lookup operations when no account matches
// the given identifier. Adapters must return this sentinel (wrapped is fine)
// rather than a backend-specific error so callers can branch on it.
var ErrAccountNotFound = errors.New("account not found")

// Account is the provider-neutral view of an identity record. Only the
// fields the lifecycle logic needs are surfaced.
type Account struct {
	// ID is the provider's stable identifier for the account.
	ID string

	// Email is the account's primary email address, normalized to lowercase.
	Email string

	// Name is the display name, possibly empty.
	Name string

	// Enabled reports whether the account may authenticate.
	Enabled bool

	// EmailVerified reports whether the email address has been confirmed.
	EmailVerified bool
}

// Provider is the contract every identity backend adapter implements.
//
// All methods honor context cancellation. Lookup methods return
// ErrAccountNotFound when the account does not exist; mutation methods return
// it when the target account has disappeared.
type Provider interface {
	// Name returns the adapter name for logging and diagnostics.
	Name() string

	// FindByEmail returns the account with the given email address.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByID returns the account with the given provider ID.
	FindByID(ctx context.Context, id string) (*Account, error)

	// Create provisions a new account with the given credentials. The
	// returned account carries the provider-assigned state.
	Create(ctx context.Context, id, email, password, name string) (*Account, error)

	// SetCredential replaces the account's password.
	SetCredential(ctx context.Context, id, password string) error

	// SetMetadata merges the given key-value pairs into the account's
	// preference store.
	SetMetadata(ctx context.Context, id string, metadata map[string]any) error

	// SetEnabled toggles whether the account may authenticate.
	SetEnabled(ctx context.Context, id string, enabled bool) error

	// SetEmailVerified marks the account's email address as verified or not.
	SetEmailVerified(ctx context.Context, id string, verified bool) error

	// RevokeSessions terminates all active sessions for the account.
	RevokeSessions(ctx context.Context, id string) error

	// Delete permanently removes the account.
	Delete(ctx context.Context, id string) error

	// HealthCheck verifies the backend is reachable and credentials are valid.
	HealthCheck(ctx context.Context) error
}
