package server

import (
	"fmt"
	"time"

	"github.com/LemuelVelez/api-workload-hub/internal/util"
)

// Defaults applied by Validate.
const (
	DefaultResetTokenTTL      = 15 * time.Minute
	DefaultMinPasswordLength  = 8
	DefaultTempPasswordLength = 14
	DefaultResetPath          = "/reset-password"
	DefaultLoginPath          = "/login"
)

// Config holds the lifecycle policy knobs.
type Config struct {
	// AppOrigin is the base URL of the frontend that hosts the reset and
	// login pages, e.g. "https://app.example.com". Required.
	AppOrigin string

	// ResetPath is the frontend route the reset link points at. The raw
	// token is appended as ?token=.
	ResetPath string

	// LoginPath is the frontend route included in credentials mail.
	LoginPath string

	// ResetTokenTTL is how long an issued reset token stays valid.
	ResetTokenTTL time.Duration

	// MinPasswordLength is enforced on password reset confirmation.
	MinPasswordLength int

	// TempPasswordLength is the length of generated temporary passwords.
	TempPasswordLength int

	// ImplicitResend makes provisioning an existing account without the
	// resend flag behave as a resend instead of a conflict. Off by default;
	// the strict behavior surfaces admin mistakes instead of silently
	// rotating someone's password.
	ImplicitResend bool

	// TrustProxy enables X-Forwarded-For parsing for rate limit keys.
	TrustProxy bool

	// TrustedProxyCount is the number of trusted reverse proxies in front
	// of the service. Only meaningful when TrustProxy is set.
	TrustedProxyCount int
}

// Validate checks required fields and fills defaults in place.
func (c *Config) Validate() error {
	if c.AppOrigin == "" {
		return fmt.Errorf("app origin is required")
	}
	c.AppOrigin = util.NormalizeOrigin(c.AppOrigin)

	if c.ResetPath == "" {
		c.ResetPath = DefaultResetPath
	}
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if c.ResetTokenTTL <= 0 {
		c.ResetTokenTTL = DefaultResetTokenTTL
	}
	if c.MinPasswordLength <= 0 {
		c.MinPasswordLength = DefaultMinPasswordLength
	}
	if c.TempPasswordLength < c.MinPasswordLength {
		c.TempPasswordLength = DefaultTempPasswordLength
	}
	if c.TrustedProxyCount < 0 {
		return fmt.Errorf("trusted proxy count must not be negative")
	}
	return nil
}

// ResetURL builds the link emailed to account holders. The raw token appears
// only here and in the message body.
func (c *Config) ResetURL(rawToken string) string {
	return fmt.Sprintf("%s%s?token=%s", c.AppOrigin, c.ResetPath, rawToken)
}

// LoginURL builds the sign-in link included in credentials mail.
func (c *Config) LoginURL() string {
	return c.AppOrigin + c.LoginPath
}
