// Package notify delivers credential lifecycle email to account holders.
//
// The Notifier interface decouples the lifecycle logic from the transport;
// the SMTP implementation here is the production path and tests substitute
// the Mock.
package notify

import "context"

// Notifier sends a single email message. Implementations must honor context
// cancellation and return an error on any delivery failure so callers can
// decide whether the failure is fatal for the surrounding operation.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
