// Package instrumentation provides OpenTelemetry metrics and tracing for the
// credential lifecycle service.
//
// The package wraps provider setup, pre-registers the service's metric
// instruments, and offers nil-safe span helpers so handlers never branch on
// whether telemetry is configured. When disabled, no-op providers keep the
// recording paths free.
//
// Usage:
//
//	inst, err := instrumentation.New(instrumentation.Config{
//	    ServiceName:    "workloadhub",
//	    ServiceVersion: version,
//	    Enabled:        true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer inst.Shutdown(ctx)
//
//	inst.Metrics().ResetRequested.Add(ctx, 1)
//
// Exporter wiring (OTLP, Prometheus) is intentionally left to the embedding
// deployment; the package only guarantees that instruments exist and record
// without error.
package instrumentation
