package server

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/LemuelVelez/api-workload-hub/instrumentation"
	"github.com/LemuelVelez/api-workload-hub/internal/util"
	"github.com/LemuelVelez/api-workload-hub/notify"
	"github.com/LemuelVelez/api-workload-hub/providers"
	"github.com/LemuelVelez/api-workload-hub/security"
)

// Provisioning actions.
const (
	ActionCreated = "created"
	ActionResent  = "resent"
)

// ProvisionInput describes an admin request to issue login credentials.
type ProvisionInput struct {
	Email string
	Name  string

	// UserID optionally pins the target account; resolution by ID takes
	// precedence over the email lookup.
	UserID string

	// Resend declares the admin expects the account to already exist and
	// wants its credentials regenerated.
	Resend bool
}

// ProvisioningOutcome reports what Provision did. TempPassword is only ever
// held in memory here and in the outgoing email; it is never stored or
// logged, and the HTTP layer does not echo it.
type ProvisioningOutcome struct {
	Action       string
	UserID       string
	Email        string
	TempPassword string
}

// Provision creates an account with temporary credentials, or regenerates
// credentials for an existing one, and emails them to the account holder.
//
// The decision table is strict by default: provisioning an email that
// already has an account without the resend flag is a conflict, and
// resending to a nonexistent account is not-found. Setting
// Config.ImplicitResend collapses the first case into a resend.
func (s *Server) Provision(ctx context.Context, input ProvisionInput) (*ProvisioningOutcome, error) {
	ctx, span := s.inst.Tracer("server").Start(ctx, "Provision")
	defer span.End()

	email := util.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ValidationError("Email is required.")
	}

	existing, err := s.resolveAccount(ctx, input.UserID, email)
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, ProviderError("Unable to look up the account.", err)
	}

	resend := input.Resend
	if existing != nil && !resend {
		if !s.config.ImplicitResend {
			return nil, ConflictError("An account with this email already exists. Set resend to regenerate its credentials.")
		}
		resend = true
	}
	if existing == nil && input.Resend {
		return nil, NotFoundError("No account exists for this email.")
	}

	tempPassword, err := security.GenerateTempPassword(s.config.TempPasswordLength)
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, ProviderError("Unable to generate credentials.", err)
	}

	var outcome *ProvisioningOutcome
	if resend {
		outcome, err = s.resendCredentials(ctx, existing, tempPassword)
	} else {
		outcome, err = s.createAccount(ctx, email, input.Name, tempPassword)
	}
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, err
	}
	outcome.TempPassword = tempPassword

	body, err := notify.RenderCredentialsEmail(notify.CredentialsEmailData{
		Name:         input.Name,
		Email:        outcome.Email,
		TempPassword: tempPassword,
		LoginURL:     s.config.LoginURL(),
		Resend:       outcome.Action == ActionResent,
	})
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, NotificationError("Unable to send the credentials email.", err)
	}

	subject := notify.SubjectCredentialsCreated
	if outcome.Action == ActionResent {
		subject = notify.SubjectCredentialsResent
	}
	if err := s.notifier.Send(ctx, outcome.Email, subject, body); err != nil {
		s.inst.Metrics().NotificationsFailed.Add(ctx, 1)
		instrumentation.RecordError(span, err)
		return nil, NotificationError("Credentials were set but the email could not be delivered.", err)
	}

	s.inst.Metrics().CredentialsProvisioned.Add(ctx, 1)
	s.inst.Metrics().NotificationsSent.Add(ctx, 1)
	s.audit(ctx, security.AuditEvent{
		Type:    security.EventCredentialsProvisioned,
		Subject: security.HashForLogging(outcome.Email),
		Success: true,
		Details: map[string]any{"action": outcome.Action},
	})
	instrumentation.AddLifecycleAttributes(span, outcome.UserID, outcome.Action)
	instrumentation.SetSpanSuccess(span)

	return outcome, nil
}

// resolveAccount finds the target account, preferring an explicit user ID.
// A stale ID that no longer resolves falls back to the email lookup rather
// than failing, matching how admins actually use the endpoint.
func (s *Server) resolveAccount(ctx context.Context, userID, email string) (*providers.Account, error) {
	if userID != "" {
		account, err := s.provider.FindByID(ctx, userID)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, providers.ErrAccountNotFound) {
			return nil, err
		}
	}

	account, err := s.provider.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, providers.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

func (s *Server) createAccount(ctx context.Context, email, name, tempPassword string) (*ProvisioningOutcome, error) {
	id := uuid.NewString()

	account, err := s.provider.Create(ctx, id, email, tempPassword, name)
	if err != nil {
		return nil, ProviderError("Unable to create the account.", err)
	}

	metadata := map[string]any{
		"mustChangePassword": true,
		"isVerified":         false,
		"createdByAdmin":     true,
		"createdAt":          s.now().UTC().Format(time.RFC3339),
	}
	if err := s.provider.SetMetadata(ctx, account.ID, metadata); err != nil {
		s.logger.WarnContext(ctx, "Failed to set metadata on created account",
			"user_id", account.ID,
			"error", err)
	}

	return &ProvisioningOutcome{Action: ActionCreated, UserID: account.ID, Email: account.Email}, nil
}

func (s *Server) resendCredentials(ctx context.Context, account *providers.Account, tempPassword string) (*ProvisioningOutcome, error) {
	if err := s.provider.SetCredential(ctx, account.ID, tempPassword); err != nil {
		return nil, ProviderError("Unable to regenerate the credentials.", err)
	}

	metadata := map[string]any{
		"mustChangePassword":  true,
		"isVerified":          false,
		"credentialsResentAt": s.now().UTC().Format(time.RFC3339),
	}
	if err := s.provider.SetMetadata(ctx, account.ID, metadata); err != nil {
		s.logger.WarnContext(ctx, "Failed to set metadata after credential resend",
			"user_id", account.ID,
			"error", err)
	}

	return &ProvisioningOutcome{Action: ActionResent, UserID: account.ID, Email: account.Email}, nil
}
