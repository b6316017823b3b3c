package instrumentation

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metric instruments for the credential lifecycle service.
type Metrics struct {
	// HTTP layer
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Credential lifecycle
	ResetRequested         metric.Int64Counter
	ResetConfirmed         metric.Int64Counter
	ResetRejected          metric.Int64Counter
	CredentialsProvisioned metric.Int64Counter
	AccountMutations       metric.Int64Counter

	// Security
	RateLimitExceeded metric.Int64Counter
	AdminAuthFailures metric.Int64Counter

	// Storage
	StorageOperationTotal    metric.Int64Counter
	StorageOperationDuration metric.Float64Histogram
	StoragePendingResets     metric.Int64ObservableGauge

	// Identity provider
	ProviderAPICallsTotal metric.Int64Counter
	ProviderAPIDuration   metric.Float64Histogram
	ProviderAPIErrors     metric.Int64Counter

	// Notifications
	NotificationsSent   metric.Int64Counter
	NotificationsFailed metric.Int64Counter
}

// newMetrics creates and registers all metric instruments.
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}

	httpMeter := inst.Meter("http")
	serverMeter := inst.Meter("server")
	securityMeter := inst.Meter("security")
	storageMeter := inst.Meter("storage")
	providerMeter := inst.Meter("provider")
	notifyMeter := inst.Meter("notify")

	var err error
	m.HTTPRequestsTotal, err = httpMeter.Int64Counter(
		"credential.http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.requests.total counter: %w", err)
	}

	m.HTTPRequestDuration, err = httpMeter.Float64Histogram(
		"credential.http.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.request.duration histogram: %w", err)
	}

	m.ResetRequested, err = serverMeter.Int64Counter(
		"credential.reset.requested",
		metric.WithDescription("Number of password reset requests accepted"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reset.requested counter: %w", err)
	}

	m.ResetConfirmed, err = serverMeter.Int64Counter(
		"credential.reset.confirmed",
		metric.WithDescription("Number of password resets completed"),
		metric.WithUnit("{reset}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reset.confirmed counter: %w", err)
	}

	m.ResetRejected, err = serverMeter.Int64Counter(
		"credential.reset.rejected",
		metric.WithDescription("Number of reset confirmations rejected (invalid, expired, or reused tokens)"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reset.rejected counter: %w", err)
	}

	m.CredentialsProvisioned, err = serverMeter.Int64Counter(
		"credential.provisioned",
		metric.WithDescription("Number of accounts provisioned with credentials"),
		metric.WithUnit("{account}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential.provisioned counter: %w", err)
	}

	m.AccountMutations, err = serverMeter.Int64Counter(
		"credential.account.mutations",
		metric.WithDescription("Number of admin account mutations (verify, enable, disable, delete)"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account.mutations counter: %w", err)
	}

	m.RateLimitExceeded, err = securityMeter.Int64Counter(
		"credential.rate_limit.exceeded",
		metric.WithDescription("Number of rate limit violations"),
		metric.WithUnit("{violation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate_limit.exceeded counter: %w", err)
	}

	m.AdminAuthFailures, err = securityMeter.Int64Counter(
		"credential.admin.auth_failures",
		metric.WithDescription("Number of failed admin authentication attempts"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin.auth_failures counter: %w", err)
	}

	m.StorageOperationTotal, err = storageMeter.Int64Counter(
		"storage.operation.total",
		metric.WithDescription("Total number of reset token store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.operation.total counter: %w", err)
	}

	m.StorageOperationDuration, err = storageMeter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Reset token store operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.operation.duration histogram: %w", err)
	}

	m.StoragePendingResets, err = storageMeter.Int64ObservableGauge(
		"storage.pending_resets",
		metric.WithDescription("Number of pending reset records in the store"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.pending_resets gauge: %w", err)
	}

	m.ProviderAPICallsTotal, err = providerMeter.Int64Counter(
		"provider.api.calls.total",
		metric.WithDescription("Total number of identity provider API calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider.api.calls.total counter: %w", err)
	}

	m.ProviderAPIDuration, err = providerMeter.Float64Histogram(
		"provider.api.duration",
		metric.WithDescription("Identity provider API call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider.api.duration histogram: %w", err)
	}

	m.ProviderAPIErrors, err = providerMeter.Int64Counter(
		"provider.api.errors",
		metric.WithDescription("Number of identity provider API errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider.api.errors counter: %w", err)
	}

	m.NotificationsSent, err = notifyMeter.Int64Counter(
		"notify.sent",
		metric.WithDescription("Number of notification emails delivered"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notify.sent counter: %w", err)
	}

	m.NotificationsFailed, err = notifyMeter.Int64Counter(
		"notify.failed",
		metric.WithDescription("Number of notification delivery failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notify.failed counter: %w", err)
	}

	return m, nil
}
