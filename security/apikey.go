package security

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// dummyAdminKeyHash is a pre-computed bcrypt hash compared against when no
// admin key is configured, so verification cost is identical whether or not a
// key exists. This prevents timing probes from revealing the configuration.
const dummyAdminKeyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AdminKey verifies the bearer token guarding the /admin endpoints.
// The configured token is kept only as a bcrypt hash; the plaintext is
// discarded at construction time.
type AdminKey struct {
	hash    string
	enabled bool
	logger  *slog.Logger
}

// NewAdminKey hashes the configured admin token. An empty token disables the
// check entirely, which is only acceptable for local development and is
// logged loudly.
func NewAdminKey(token string, logger *slog.Logger) (*AdminKey, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if token == "" {
		logger.Warn("Admin access key is not configured - admin endpoints are UNAUTHENTICATED")
		return &AdminKey{enabled: false, logger: logger}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin key: %w", err)
	}

	return &AdminKey{hash: string(hash), enabled: true, logger: logger}, nil
}

// Enabled reports whether admin authentication is enforced.
func (k *AdminKey) Enabled() bool {
	return k != nil && k.enabled
}

// Verify checks a presented admin token. It always performs exactly one
// bcrypt comparison - against the dummy hash when the check is disabled or
// the presented token is empty - so callers cannot distinguish the cases by
// response timing.
func (k *AdminKey) Verify(presented string) bool {
	hash := dummyAdminKeyHash
	if k.Enabled() {
		hash = k.hash
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented))

	if !k.Enabled() {
		return true
	}
	return err == nil
}

// VerifyRequest extracts the bearer token from an Authorization header and
// verifies it. A missing header fails verification when the check is enabled.
func (k *AdminKey) VerifyRequest(r *http.Request) bool {
	if !k.Enabled() {
		return true
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		// Burn a comparison anyway to keep the failure path uniform.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyAdminKeyHash), []byte(authHeader))
		return false
	}

	return k.Verify(parts[1])
}
