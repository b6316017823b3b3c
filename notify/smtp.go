package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/LemuelVelez/api-workload-hub/security"
)

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address, optionally with a display name
	// ("WorkloadHub <no-reply@example.com>").
	From string

	// ImplicitTLS dials a TLS connection directly (port 465 style) instead
	// of plaintext with STARTTLS (port 587 style).
	ImplicitTLS bool
}

// SMTPMailer sends mail through a single SMTP relay using PLAIN auth.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger

	// dial is swapped in tests.
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

var _ Notifier = (*SMTPMailer)(nil)

// NewSMTPMailer validates the relay settings and returns a mailer.
func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp port %d is out of range", cfg.Port)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &SMTPMailer{cfg: cfg, logger: logger}
	m.dial = m.dialConn
	return m, nil
}

func (m *SMTPMailer) dialConn(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	if m.cfg.ImplicitTLS {
		td := &tls.Dialer{NetDialer: &d, Config: &tls.Config{ServerName: m.cfg.Host}}
		return td.DialContext(ctx, "tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

// Send delivers one HTML email. The connection is opened, used, and closed
// per message; credential mail volume is low enough that pooling is not
// worth the state.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if to == "" {
		return fmt.Errorf("recipient address is required")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	conn, err := m.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp relay: %w", err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake failed: %w", err)
	}
	defer func() { _ = client.Close() }()

	// Stop mid-delivery if the request context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	if !m.cfg.ImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return fmt.Errorf("starttls failed: %w", err)
			}
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	fromAddr := extractAddress(m.cfg.From)
	if err := client.Mail(fromAddr); err != nil {
		return fmt.Errorf("smtp MAIL failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT failed: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := wc.Write(buildMessage(m.cfg.From, to, subject, htmlBody)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	if err := client.Quit(); err != nil {
		m.logger.Debug("smtp QUIT failed after successful delivery", "error", err)
	}

	m.logger.Info("Email delivered",
		"recipient", security.HashForLogging(to),
		"subject", subject)
	return nil
}

// buildMessage assembles the RFC 5322 message bytes for an HTML email.
func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// sanitizeHeader strips CR and LF so caller-supplied subjects cannot inject
// additional headers.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "")
}

// extractAddress pulls the bare address out of a "Name <addr>" sender.
func extractAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start != -1 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return from
}
