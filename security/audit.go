package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Audit event types for credential lifecycle operations.
const (
	EventResetRequested         = "reset_requested"
	EventResetConsumed          = "reset_consumed"
	EventResetRejected          = "reset_rejected"
	EventCredentialsProvisioned = "credentials_provisioned"
	EventAuthStatusChanged      = "auth_status_changed"
	EventUserVerified           = "user_verified"
	EventUserDeleted            = "user_deleted"
	EventRateLimitExceeded      = "rate_limit_exceeded"
	EventAdminAuthFailure       = "admin_auth_failure"
)

// AuditEvent is a structured security event. Identifiers that could enable
// enumeration (emails, token hashes) are hashed before logging.
type AuditEvent struct {
	Type      string
	Timestamp time.Time
	Subject   string // hashed identifier of the affected account
	ClientIP  string
	Success   bool
	Details   map[string]any
}

// Auditor emits security audit events through a structured logger. A nil or
// disabled Auditor drops events silently, so call sites never need to guard.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates an auditor writing to the given logger.
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{logger: logger, enabled: enabled}
}

// LogEvent records a security audit event.
func (a *Auditor) LogEvent(ctx context.Context, event AuditEvent) {
	if a == nil || !a.enabled {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		"audit_event", event.Type,
		"timestamp", event.Timestamp.UTC().Format(time.RFC3339),
		"success", event.Success,
	}
	if event.Subject != "" {
		attrs = append(attrs, "subject", event.Subject)
	}
	if event.ClientIP != "" {
		attrs = append(attrs, "client_ip", event.ClientIP)
	}
	for k, v := range event.Details {
		attrs = append(attrs, k, v)
	}

	if event.Success {
		a.logger.InfoContext(ctx, "Security audit event", attrs...)
	} else {
		a.logger.WarnContext(ctx, "Security audit event", attrs...)
	}
}

// HashForLogging produces a short stable digest of an identifier so audit
// trails can correlate events for one account without recording the
// identifier itself.
func HashForLogging(identifier string) string {
	if identifier == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:])[:16]
}
