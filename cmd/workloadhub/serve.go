package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	workloadhub "github.com/LemuelVelez/api-workload-hub"
	"github.com/LemuelVelez/api-workload-hub/instrumentation"
	"github.com/LemuelVelez/api-workload-hub/notify"
	"github.com/LemuelVelez/api-workload-hub/providers/appwrite"
	"github.com/LemuelVelez/api-workload-hub/security"
	"github.com/LemuelVelez/api-workload-hub/server"
	"github.com/LemuelVelez/api-workload-hub/storage/memory"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the credential lifecycle HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("listen", ":8080", "listen address")
	cmd.Flags().String("public_url", "", "externally visible base URL of this service")
	cmd.Flags().String("log.level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("log.format", "text", "log format (text, json)")
	cmd.Flags().String("app.origin", "", "frontend origin the email links point at")
	cmd.Flags().String("appwrite.endpoint", "", "Appwrite API endpoint")
	cmd.Flags().String("appwrite.project_id", "", "Appwrite project ID")
	cmd.Flags().String("smtp.host", "", "SMTP relay host")
	cmd.Flags().Int("smtp.port", 587, "SMTP relay port")
	cmd.Flags().String("smtp.from", "", "sender address for outgoing mail")
	cmd.Flags().Bool("telemetry.enabled", false, "enable OpenTelemetry instrumentation")

	return cmd
}

// loadConfig merges the YAML config file with flag overrides. Secrets
// (appwrite.api_key, smtp.password, admin.key) come from the file only.
func loadConfig(flags *pflag.FlagSet) (*workloadhub.Config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg workloadhub.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func runServe(ctx context.Context, cfg *workloadhub.Config) error {
	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	inst, err := instrumentation.New(instrumentation.Config{
		ServiceName:    workloadhub.ServiceName,
		ServiceVersion: version,
		Enabled:        cfg.Telemetry.Enabled,
		LogClientIPs:   cfg.Telemetry.LogClientIPs,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize instrumentation: %w", err)
	}

	store := memory.New()
	store.SetLogger(logger)
	defer func() { _ = store.Close() }()
	if err := inst.RegisterStoreSizeCallback(func() int64 { return int64(store.Len()) }); err != nil {
		logger.Warn("Failed to register store size gauge", "error", err)
	}

	provider, err := appwrite.New(appwrite.Config{
		Endpoint:  cfg.Appwrite.Endpoint,
		ProjectID: cfg.Appwrite.ProjectID,
		APIKey:    cfg.Appwrite.APIKey,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to configure identity provider: %w", err)
	}

	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.Username,
		Password:    cfg.SMTP.Password,
		From:        cfg.SMTP.From,
		ImplicitTLS: cfg.SMTP.ImplicitTLS,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to configure mailer: %w", err)
	}

	adminKey, err := security.NewAdminKey(cfg.Admin.Key, logger)
	if err != nil {
		return fmt.Errorf("failed to configure admin key: %w", err)
	}
	auditor := security.NewAuditor(logger, cfg.Admin.Audit)

	srv, err := server.New(provider, store, mailer, cfg.ServerConfig(), server.Options{
		Auditor:         auditor,
		Instrumentation: inst,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	handler, err := workloadhub.NewHandler(srv, workloadhub.HandlerConfig{
		PublicURL:          cfg.PublicURL,
		AllowedOrigin:      cfg.App.Origin,
		AdminKey:           adminKey,
		RateLimitPerSecond: cfg.RateLimit.PerSecond,
		RateLimitBurst:     cfg.RateLimit.Burst,
		TrustProxy:         cfg.Proxy.Trust,
		TrustedProxyCount:  cfg.Proxy.TrustedCount,
	}, workloadhub.HandlerOptions{
		Auditor:         auditor,
		Instrumentation: inst,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build handler: %w", err)
	}
	defer handler.Close()

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening",
			"addr", cfg.Listen,
			"provider", provider.Name(),
			"version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := inst.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Instrumentation shutdown failed", "error", err)
	}
	return nil
}

func buildLogger(cfg workloadhub.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
