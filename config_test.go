package workloadhub

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:      AppConfig{Origin: "https://app.example.com"},
		Appwrite: AppwriteConfig{Endpoint: "https://cloud.appwrite.io/v1", ProjectID: "p", APIKey: "k"},
		SMTP:     SMTPConfig{Host: "smtp.example.com", From: "no-reply@example.com"},
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("listen default = %q", cfg.Listen)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("smtp port default = %d", cfg.SMTP.Port)
	}
}

func TestConfigValidateMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing app origin", func(c *Config) { c.App.Origin = "" }},
		{"missing appwrite key", func(c *Config) { c.Appwrite.APIKey = "" }},
		{"missing smtp host", func(c *Config) { c.SMTP.Host = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestServerConfigMapping(t *testing.T) {
	cfg := validConfig()
	cfg.App.ResetTokenTTL = 30 * time.Minute
	cfg.App.ImplicitResend = true
	cfg.Proxy.Trust = true
	cfg.Proxy.TrustedCount = 2

	sc := cfg.ServerConfig()
	if sc.AppOrigin != "https://app.example.com" {
		t.Errorf("AppOrigin = %q", sc.AppOrigin)
	}
	if sc.ResetTokenTTL != 30*time.Minute {
		t.Errorf("ResetTokenTTL = %v", sc.ResetTokenTTL)
	}
	if !sc.ImplicitResend || !sc.TrustProxy || sc.TrustedProxyCount != 2 {
		t.Errorf("policy fields not mapped: %+v", sc)
	}
}
