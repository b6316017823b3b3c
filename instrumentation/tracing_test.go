package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSpanHelpersNilSafe(t *testing.T) {
	// None of these may panic on a nil span.
	RecordError(nil, errors.New("boom"))
	SetSpanSuccess(nil)
	SetSpanAttributes(nil, attribute.String("k", "v"))
	AddLifecycleAttributes(nil, "user-1", "consumed")
	AddStorageAttributes(nil, "take", "hit")
	AddProviderAttributes(nil, "appwrite", "FindByEmail")
	AddHTTPAttributes(nil, "POST", "/forgot-password", 200)
	AddSecurityAttributes(nil, "10.0.0.1")
}

func TestSpanHelpersWithNoopSpan(t *testing.T) {
	inst, err := New(Config{ServiceName: "test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, span := inst.Tracer("server").Start(context.Background(), "test-op")
	defer span.End()

	RecordError(span, errors.New("boom"))
	SetSpanSuccess(span)
	AddLifecycleAttributes(span, "user-1", "created")
	AddHTTPAttributes(span, "POST", "/admin/send-login-credentials", 201)
	AddSecurityAttributes(span, "")
}
