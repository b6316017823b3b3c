package server

import (
	"context"
	"errors"
	"time"

	"github.com/LemuelVelez/api-workload-hub/instrumentation"
	"github.com/LemuelVelez/api-workload-hub/internal/util"
	"github.com/LemuelVelez/api-workload-hub/notify"
	"github.com/LemuelVelez/api-workload-hub/providers"
	"github.com/LemuelVelez/api-workload-hub/security"
	"github.com/LemuelVelez/api-workload-hub/storage"
)

// ResetResult identifies the account whose password was reset.
type ResetResult struct {
	UserID string
	Email  string
}

// RequestReset starts a password reset for the given email address.
//
// Whether or not the email belongs to an account, a nil return means the
// caller should report success. Only infrastructure failures (provider
// outage, mail delivery) surface as errors; a missing account never does,
// so the endpoint cannot be used to probe which addresses exist.
func (s *Server) RequestReset(ctx context.Context, email string) error {
	ctx, span := s.inst.Tracer("server").Start(ctx, "RequestReset")
	defer span.End()

	email = util.NormalizeEmail(email)
	if email == "" {
		return ValidationError("Email is required.")
	}

	account, err := s.provider.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, providers.ErrAccountNotFound) {
			// Indistinguishable from the success path for the caller.
			s.logger.DebugContext(ctx, "Reset requested for unknown email",
				"email_hash", security.HashForLogging(email))
			instrumentation.SetSpanSuccess(span)
			return nil
		}
		instrumentation.RecordError(span, err)
		return ProviderError("Unable to process the request right now.", err)
	}
	if account.ID == "" {
		s.logger.WarnContext(ctx, "Provider returned account without ID",
			"email_hash", security.HashForLogging(email))
		instrumentation.SetSpanSuccess(span)
		return nil
	}

	raw, hash := security.NewResetToken()

	record := &storage.ResetRequest{
		TokenHash: hash,
		UserID:    account.ID,
		Email:     account.Email,
	}
	if err := s.resetStore.Put(ctx, record, s.config.ResetTokenTTL); err != nil {
		instrumentation.RecordError(span, err)
		return ProviderError("Unable to process the request right now.", err)
	}

	body, err := notify.RenderResetEmail(notify.ResetEmailData{
		Name:       account.Name,
		ResetURL:   s.config.ResetURL(raw),
		TTLMinutes: int(s.config.ResetTokenTTL / time.Minute),
	})
	if err != nil {
		instrumentation.RecordError(span, err)
		return NotificationError("Unable to send the reset email.", err)
	}

	if err := s.notifier.Send(ctx, account.Email, notify.SubjectPasswordReset, body); err != nil {
		// The stored token stays valid; a later retry may still succeed
		// within the TTL.
		s.inst.Metrics().NotificationsFailed.Add(ctx, 1)
		instrumentation.RecordError(span, err)
		return NotificationError("Unable to send the reset email.", err)
	}

	s.inst.Metrics().ResetRequested.Add(ctx, 1)
	s.inst.Metrics().NotificationsSent.Add(ctx, 1)
	s.audit(ctx, security.AuditEvent{
		Type:    security.EventResetRequested,
		Subject: security.HashForLogging(account.Email),
		Success: true,
		Details: map[string]any{"ttl_minutes": int(s.config.ResetTokenTTL / time.Minute)},
	})
	instrumentation.AddLifecycleAttributes(span, account.ID, "requested")
	instrumentation.SetSpanSuccess(span)

	return nil
}

// ConfirmReset completes a password reset. All input validation happens
// before the token is consumed, so a typo in the new password does not burn
// the reset link. Once the token is consumed it is never restored, even if
// a later provider call fails.
func (s *Server) ConfirmReset(ctx context.Context, rawToken, password, passwordConfirm string) (*ResetResult, error) {
	ctx, span := s.inst.Tracer("server").Start(ctx, "ConfirmReset")
	defer span.End()

	if rawToken == "" {
		return nil, ValidationError("Reset token is required.")
	}
	if len(password) < s.config.MinPasswordLength {
		return nil, ValidationError("Password does not meet the minimum length requirement.")
	}
	if passwordConfirm != "" && password != passwordConfirm {
		return nil, ValidationError("Passwords do not match.")
	}

	hash := security.DigestResetToken(rawToken)
	record, err := s.resetStore.TakeIfValid(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) || errors.Is(err, storage.ErrTokenExpired) {
			s.inst.Metrics().ResetRejected.Add(ctx, 1)
			s.audit(ctx, security.AuditEvent{
				Type:    security.EventResetRejected,
				Success: false,
				Details: map[string]any{"reason": rejectionReason(err)},
			})
			return nil, TokenError()
		}
		instrumentation.RecordError(span, err)
		return nil, ProviderError("Unable to process the request right now.", err)
	}

	if err := s.provider.SetCredential(ctx, record.UserID, password); err != nil {
		instrumentation.RecordError(span, err)
		return nil, ProviderError("Unable to update the password.", err)
	}

	if err := s.provider.SetEmailVerified(ctx, record.UserID, true); err != nil {
		instrumentation.RecordError(span, err)
		return nil, ProviderError("Password was updated but account verification failed.", err)
	}

	// Metadata is advisory; a failure here must not undo a completed reset.
	metadata := map[string]any{
		"mustChangePassword": false,
		"isVerified":         true,
		"verifiedAt":         s.now().UTC().Format(time.RFC3339),
	}
	if err := s.provider.SetMetadata(ctx, record.UserID, metadata); err != nil {
		s.logger.WarnContext(ctx, "Failed to update account metadata after reset",
			"user_id", record.UserID,
			"error", err)
	}

	s.inst.Metrics().ResetConfirmed.Add(ctx, 1)
	s.audit(ctx, security.AuditEvent{
		Type:    security.EventResetConsumed,
		Subject: security.HashForLogging(record.Email),
		Success: true,
	})
	instrumentation.AddLifecycleAttributes(span, record.UserID, "consumed")
	instrumentation.SetSpanSuccess(span)

	return &ResetResult{UserID: record.UserID, Email: record.Email}, nil
}

func rejectionReason(err error) string {
	if errors.Is(err, storage.ErrTokenExpired) {
		return "expired"
	}
	return "unknown_token"
}

func (s *Server) audit(ctx context.Context, event security.AuditEvent) {
	if s.auditor != nil {
		s.auditor.LogEvent(ctx, event)
	}
}
