package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
//
// Never attach actual secrets (raw reset tokens, temporary passwords, admin
// keys) to traces. Only metadata such as outcomes, hashed identifiers, and
// durations belongs here. Traces persist longer and travel further than the
// systems that produced them.
const (
	// Lifecycle attributes
	AttrAccountID = "credential.account_id" // Provider account identifier (non-secret)
	AttrOutcome   = "credential.outcome"    // Operation outcome (created, resent, consumed, rejected)
	AttrResend    = "credential.resend"     // Whether provisioning regenerated existing credentials

	// Storage attributes
	AttrStorageOperation = "storage.operation"
	AttrStorageResult    = "storage.result"

	// Provider attributes
	AttrProviderName      = "provider.name"
	AttrProviderOperation = "provider.operation"

	// Security attributes
	AttrClientIP       = "security.client_ip"
	AttrAuditEventType = "security.audit.event_type"

	// HTTP attributes beyond the standard semantic conventions
	AttrHTTPEndpoint   = "http.endpoint"
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
)

// RecordError records an error on a span with error status (nil-safe).
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe).
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe).
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddLifecycleAttributes adds common credential operation attributes (nil-safe).
func AddLifecycleAttributes(span trace.Span, accountID, outcome string) {
	if accountID != "" {
		SetSpanAttributes(span, attribute.String(AttrAccountID, accountID))
	}
	if outcome != "" {
		SetSpanAttributes(span, attribute.String(AttrOutcome, outcome))
	}
}

// AddStorageAttributes adds reset store operation attributes (nil-safe).
func AddStorageAttributes(span trace.Span, operation, result string) {
	SetSpanAttributes(span,
		attribute.String(AttrStorageOperation, operation),
		attribute.String(AttrStorageResult, result),
	)
}

// AddProviderAttributes adds identity provider call attributes (nil-safe).
func AddProviderAttributes(span trace.Span, providerName, operation string) {
	SetSpanAttributes(span,
		attribute.String(AttrProviderName, providerName),
		attribute.String(AttrProviderOperation, operation),
	)
}

// AddHTTPAttributes adds HTTP request attributes (nil-safe).
func AddHTTPAttributes(span trace.Span, method, endpoint string, statusCode int) {
	SetSpanAttributes(span,
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPEndpoint, endpoint),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
}

// AddSecurityAttributes adds the client IP attribute (nil-safe). Check
// ShouldLogClientIPs before calling in jurisdictions where IPs are PII.
func AddSecurityAttributes(span trace.Span, clientIP string) {
	if clientIP != "" {
		SetSpanAttributes(span, attribute.String(AttrClientIP, clientIP))
	}
}
