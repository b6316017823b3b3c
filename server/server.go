// Package server implements the credential lifecycle operations: password
// reset issuance and confirmation, admin credential provisioning, and
// account state changes. It orchestrates the identity provider, the reset
// token store, and the notifier; the HTTP surface lives one package up.
package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/LemuelVelez/api-workload-hub/instrumentation"
	"github.com/LemuelVelez/api-workload-hub/notify"
	"github.com/LemuelVelez/api-workload-hub/providers"
	"github.com/LemuelVelez/api-workload-hub/security"
	"github.com/LemuelVelez/api-workload-hub/storage"
)

// Server carries the dependencies for the lifecycle operations. Construct
// with New; the zero value is not usable.
type Server struct {
	provider   providers.Provider
	resetStore storage.ResetTokenStore
	notifier   notify.Notifier
	auditor    *security.Auditor
	inst       *instrumentation.Instrumentation
	logger     *slog.Logger
	config     Config

	// now is swapped in tests for deterministic timestamps.
	now func() time.Time
}

// Options configures optional Server dependencies.
type Options struct {
	// Auditor records security events. Nil disables auditing.
	Auditor *security.Auditor

	// Instrumentation records metrics and traces. Nil disables telemetry.
	Instrumentation *instrumentation.Instrumentation

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New validates the configuration and wires a Server.
func New(provider providers.Provider, resetStore storage.ResetTokenStore, notifier notify.Notifier, config Config, opts Options) (*Server, error) {
	if provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if resetStore == nil {
		return nil, fmt.Errorf("reset token store is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	inst := opts.Instrumentation
	if inst == nil {
		var err error
		inst, err = instrumentation.New(instrumentation.Config{ServiceName: "workloadhub"})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize instrumentation: %w", err)
		}
	}

	return &Server{
		provider:   provider,
		resetStore: resetStore,
		notifier:   notifier,
		auditor:    opts.Auditor,
		inst:       inst,
		logger:     logger,
		config:     config,
		now:        time.Now,
	}, nil
}

// Config returns a copy of the validated configuration.
func (s *Server) Config() Config {
	return s.config
}

// Provider returns the configured identity provider, used by the health
// endpoint.
func (s *Server) Provider() providers.Provider {
	return s.provider
}
