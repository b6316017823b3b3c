package workloadhub

import (
	"fmt"
	"time"

	"github.com/LemuelVelez/api-workload-hub/server"
)

// Config aggregates every setting the daemon needs. It is the unmarshal
// target for the YAML config file and flag overrides; the koanf tags name
// the keys.
type Config struct {
	// Listen is the address the HTTP server binds, e.g. ":8080".
	Listen string `koanf:"listen"`

	// PublicURL is the externally visible base URL of this service.
	PublicURL string `koanf:"public_url"`

	Log       LogConfig       `koanf:"log"`
	App       AppConfig       `koanf:"app"`
	Appwrite  AppwriteConfig  `koanf:"appwrite"`
	SMTP      SMTPConfig      `koanf:"smtp"`
	Admin     AdminConfig     `koanf:"admin"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Proxy     ProxyConfig     `koanf:"proxy"`
}

// LogConfig controls the slog setup.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `koanf:"level"`

	// Format is text or json.
	Format string `koanf:"format"`
}

// AppConfig describes the frontend the emails point at and the lifecycle
// policy knobs.
type AppConfig struct {
	Origin             string        `koanf:"origin"`
	ResetPath          string        `koanf:"reset_path"`
	LoginPath          string        `koanf:"login_path"`
	ResetTokenTTL      time.Duration `koanf:"reset_token_ttl"`
	MinPasswordLength  int           `koanf:"min_password_length"`
	TempPasswordLength int           `koanf:"temp_password_length"`
	ImplicitResend     bool          `koanf:"implicit_resend"`
}

// AppwriteConfig holds the identity provider connection.
type AppwriteConfig struct {
	Endpoint  string `koanf:"endpoint"`
	ProjectID string `koanf:"project_id"`
	APIKey    string `koanf:"api_key"`
}

// SMTPConfig holds the mail relay connection.
type SMTPConfig struct {
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	Username    string `koanf:"username"`
	Password    string `koanf:"password"`
	From        string `koanf:"from"`
	ImplicitTLS bool   `koanf:"implicit_tls"`
}

// AdminConfig guards the /admin endpoints.
type AdminConfig struct {
	// Key is the bearer token admins present. Empty disables the check.
	Key string `koanf:"key"`

	// Audit enables security audit logging.
	Audit bool `koanf:"audit"`
}

// RateLimitConfig tunes the per-IP limiter on the reset request endpoint.
type RateLimitConfig struct {
	PerSecond int `koanf:"per_second"`
	Burst     int `koanf:"burst"`
}

// TelemetryConfig controls OpenTelemetry wiring.
type TelemetryConfig struct {
	Enabled      bool `koanf:"enabled"`
	LogClientIPs bool `koanf:"log_client_ips"`
}

// ProxyConfig controls client IP extraction behind reverse proxies.
type ProxyConfig struct {
	Trust        bool `koanf:"trust"`
	TrustedCount int  `koanf:"trusted_count"`
}

// Validate checks the fields the daemon cannot default.
func (c *Config) Validate() error {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.App.Origin == "" {
		return fmt.Errorf("app.origin is required")
	}
	if c.Appwrite.Endpoint == "" || c.Appwrite.ProjectID == "" || c.Appwrite.APIKey == "" {
		return fmt.Errorf("appwrite.endpoint, appwrite.project_id, and appwrite.api_key are required")
	}
	if c.SMTP.Host == "" || c.SMTP.From == "" {
		return fmt.Errorf("smtp.host and smtp.from are required")
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	return nil
}

// ServerConfig maps the aggregate config onto the lifecycle policy.
func (c *Config) ServerConfig() server.Config {
	return server.Config{
		AppOrigin:          c.App.Origin,
		ResetPath:          c.App.ResetPath,
		LoginPath:          c.App.LoginPath,
		ResetTokenTTL:      c.App.ResetTokenTTL,
		MinPasswordLength:  c.App.MinPasswordLength,
		TempPasswordLength: c.App.TempPasswordLength,
		ImplicitResend:     c.App.ImplicitResend,
		TrustProxy:         c.Proxy.Trust,
		TrustedProxyCount:  c.Proxy.TrustedCount,
	}
}
