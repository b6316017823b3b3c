// Package storage provides interfaces and types for password reset token persistence.
//
// The storage package defines the core storage interface used throughout the
// workloadhub library:
//   - ResetTokenStore: An expiring, single-use registry of pending reset requests,
//     keyed by the one-way digest of the raw bearer token.
//
// Implementations are provided in subpackages:
//   - storage/memory: In-memory storage for single-process deployments
//
// Stores never see raw reset tokens. Callers hash the token with the security
// package's codec and use the digest as the storage key, so a disclosure of
// store contents does not leak usable bearer capabilities.
package storage
