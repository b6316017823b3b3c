package server

import (
	"context"
	"errors"
	"time"

	"github.com/LemuelVelez/api-workload-hub/instrumentation"
	"github.com/LemuelVelez/api-workload-hub/providers"
	"github.com/LemuelVelez/api-workload-hub/security"
)

// VerifyUser marks an account's email as verified after a completed first
// password change. The account must exist.
func (s *Server) VerifyUser(ctx context.Context, userID string) error {
	ctx, span := s.inst.Tracer("server").Start(ctx, "VerifyUser")
	defer span.End()

	if userID == "" {
		return ValidationError("User ID is required.")
	}

	account, err := s.provider.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, providers.ErrAccountNotFound) {
			return NotFoundError("No account exists with this ID.")
		}
		instrumentation.RecordError(span, err)
		return ProviderError("Unable to look up the account.", err)
	}

	if err := s.provider.SetEmailVerified(ctx, account.ID, true); err != nil {
		instrumentation.RecordError(span, err)
		return ProviderError("Unable to verify the account.", err)
	}

	metadata := map[string]any{
		"mustChangePassword": false,
		"isVerified":         true,
		"verifiedAt":         s.now().UTC().Format(time.RFC3339),
		"verifiedBy":         "password_change",
	}
	if err := s.provider.SetMetadata(ctx, account.ID, metadata); err != nil {
		s.logger.WarnContext(ctx, "Failed to update metadata after verification",
			"user_id", account.ID,
			"error", err)
	}

	s.inst.Metrics().AccountMutations.Add(ctx, 1)
	s.audit(ctx, security.AuditEvent{
		Type:    security.EventUserVerified,
		Subject: security.HashForLogging(account.Email),
		Success: true,
	})
	instrumentation.AddLifecycleAttributes(span, account.ID, "verified")
	instrumentation.SetSpanSuccess(span)

	return nil
}

// SetAuthStatus enables or disables an account. Disabling also revokes
// active sessions so the lockout takes effect immediately; session
// revocation failure is logged but does not fail the request, since the
// disabled account cannot open new sessions anyway.
//
// A missing account reports success: the desired end state (the user cannot
// authenticate) already holds.
func (s *Server) SetAuthStatus(ctx context.Context, userID string, isActive bool) error {
	ctx, span := s.inst.Tracer("server").Start(ctx, "SetAuthStatus")
	defer span.End()

	if userID == "" {
		return ValidationError("User ID is required.")
	}

	account, err := s.provider.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, providers.ErrAccountNotFound) {
			instrumentation.SetSpanSuccess(span)
			return nil
		}
		instrumentation.RecordError(span, err)
		return ProviderError("Unable to look up the account.", err)
	}

	if err := s.provider.SetEnabled(ctx, account.ID, isActive); err != nil {
		instrumentation.RecordError(span, err)
		return ProviderError("Unable to change the account status.", err)
	}

	if !isActive {
		if err := s.provider.RevokeSessions(ctx, account.ID); err != nil {
			s.logger.WarnContext(ctx, "Failed to revoke sessions for disabled account",
				"user_id", account.ID,
				"error", err)
		}
	}

	s.inst.Metrics().AccountMutations.Add(ctx, 1)
	s.audit(ctx, security.AuditEvent{
		Type:    security.EventAuthStatusChanged,
		Subject: security.HashForLogging(account.Email),
		Success: true,
		Details: map[string]any{"active": isActive},
	})
	instrumentation.AddLifecycleAttributes(span, account.ID, "status_changed")
	instrumentation.SetSpanSuccess(span)

	return nil
}

// DeleteUser permanently removes an account from the identity provider.
// Deleting an account that is already gone reports success.
func (s *Server) DeleteUser(ctx context.Context, userID string) error {
	ctx, span := s.inst.Tracer("server").Start(ctx, "DeleteUser")
	defer span.End()

	if userID == "" {
		return ValidationError("User ID is required.")
	}

	if err := s.provider.Delete(ctx, userID); err != nil {
		if errors.Is(err, providers.ErrAccountNotFound) {
			instrumentation.SetSpanSuccess(span)
			return nil
		}
		instrumentation.RecordError(span, err)
		return ProviderError("Unable to delete the account.", err)
	}

	s.inst.Metrics().AccountMutations.Add(ctx, 1)
	s.audit(ctx, security.AuditEvent{
		Type:    security.EventUserDeleted,
		Subject: security.HashForLogging(userID),
		Success: true,
	})
	instrumentation.AddLifecycleAttributes(span, userID, "deleted")
	instrumentation.SetSpanSuccess(span)

	return nil
}
