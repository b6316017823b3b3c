// Package workloadhub exposes the credential lifecycle service over HTTP.
//
// The package wires the server controllers to a JSON API, adding the
// cross-cutting concerns every endpoint needs: request IDs, security
// headers, CORS for the configured frontend origin, body size limits, rate
// limiting on the anonymous reset endpoint, and admin key checks on the
// /admin routes.
package workloadhub

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/LemuelVelez/api-workload-hub/instrumentation"
	"github.com/LemuelVelez/api-workload-hub/security"
	"github.com/LemuelVelez/api-workload-hub/server"
)

const (
	// ServiceName appears in health responses and telemetry.
	ServiceName = "workloadhub"

	// DefaultMaxBodyBytes caps request bodies at 2 MiB.
	DefaultMaxBodyBytes = 2 << 20

	defaultRateLimitPerSecond = 1
	defaultRateLimitBurst     = 5
)

// HandlerConfig tunes the HTTP surface.
type HandlerConfig struct {
	// PublicURL is the externally visible base URL of this service, used
	// to decide whether to emit HSTS headers.
	PublicURL string

	// AllowedOrigin is the frontend origin granted CORS access. Empty
	// disables CORS headers entirely.
	AllowedOrigin string

	// AdminKey guards the /admin endpoints. A nil or disabled key leaves
	// them open.
	AdminKey *security.AdminKey

	// MaxBodyBytes caps request body size; 0 means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// RateLimitPerSecond and RateLimitBurst tune the per-IP limiter on the
	// forgot-password endpoint. Zero values use conservative defaults.
	RateLimitPerSecond int
	RateLimitBurst     int

	// TrustProxy and TrustedProxyCount control client IP extraction for
	// rate limiting.
	TrustProxy        bool
	TrustedProxyCount int
}

// Handler is the HTTP front of the service. Create with NewHandler.
type Handler struct {
	srv         *server.Server
	auditor     *security.Auditor
	rateLimiter *security.RateLimiter
	inst        *instrumentation.Instrumentation
	logger      *slog.Logger
	cfg         HandlerConfig
	mux         *http.ServeMux
}

// HandlerOptions configures optional Handler dependencies.
type HandlerOptions struct {
	Auditor         *security.Auditor
	Instrumentation *instrumentation.Instrumentation
	Logger          *slog.Logger
}

// NewHandler builds the route table and middleware chain.
func NewHandler(srv *server.Server, cfg HandlerConfig, opts HandlerOptions) (*Handler, error) {
	if srv == nil {
		return nil, fmt.Errorf("server is required")
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = defaultRateLimitPerSecond
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	inst := opts.Instrumentation
	if inst == nil {
		var err error
		inst, err = instrumentation.New(instrumentation.Config{ServiceName: ServiceName})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize instrumentation: %w", err)
		}
	}

	h := &Handler{
		srv:         srv,
		auditor:     opts.Auditor,
		rateLimiter: security.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, logger),
		inst:        inst,
		logger:      logger,
		cfg:         cfg,
		mux:         http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /auth/forgot-password", h.rateLimited(h.handleForgotPassword))
	h.mux.HandleFunc("POST /auth/password-reset", h.handlePasswordReset)
	h.mux.HandleFunc("POST /auth/verify-user", h.handleVerifyUser)
	h.mux.HandleFunc("POST /admin/send-login-credentials", h.adminOnly(h.handleSendCredentials))
	h.mux.HandleFunc("POST /admin/set-auth-status", h.adminOnly(h.handleSetAuthStatus))
	h.mux.HandleFunc("POST /admin/delete-auth-user", h.adminOnly(h.handleDeleteUser))
	h.mux.HandleFunc("GET /health", h.handleHealth)

	return h, nil
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.rateLimiter.Stop()
}

// ServeHTTP implements http.Handler with the shared middleware applied.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	security.RequestIDMiddleware(http.HandlerFunc(h.serveInner)).ServeHTTP(w, r)
}

func (h *Handler) serveInner(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	security.SetSecurityHeaders(w, h.cfg.PublicURL)
	if h.applyCORS(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(sw, r)

	ctx := r.Context()
	h.inst.Metrics().HTTPRequestsTotal.Add(ctx, 1)
	h.inst.Metrics().HTTPRequestDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	h.logger.InfoContext(ctx, "Request handled",
		"method", r.Method,
		"path", r.URL.Path,
		"status", sw.status,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", security.GetRequestID(ctx))
}

// applyCORS writes the CORS headers and answers preflight. Returns true
// when the request was fully handled.
func (h *Handler) applyCORS(w http.ResponseWriter, r *http.Request) bool {
	if h.cfg.AllowedOrigin == "" {
		return false
	}

	w.Header().Set("Access-Control-Allow-Origin", h.cfg.AllowedOrigin)
	w.Header().Set("Vary", "Origin")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// rateLimited rejects callers that exceed the per-IP budget.
func (h *Handler) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := security.GetClientIP(r, h.cfg.TrustProxy, h.cfg.TrustedProxyCount)
		if !h.rateLimiter.Allow(clientIP) {
			h.inst.Metrics().RateLimitExceeded.Add(r.Context(), 1)
			h.audit(r, security.AuditEvent{
				Type:     security.EventRateLimitExceeded,
				ClientIP: clientIP,
				Success:  false,
			})
			h.writeError(w, r, server.RateLimitedError())
			return
		}
		next(w, r)
	}
}

// adminOnly enforces the admin key when one is configured.
func (h *Handler) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AdminKey != nil && !h.cfg.AdminKey.VerifyRequest(r) {
			h.inst.Metrics().AdminAuthFailures.Add(r.Context(), 1)
			h.audit(r, security.AuditEvent{
				Type:     security.EventAdminAuthFailure,
				ClientIP: security.GetClientIP(r, h.cfg.TrustProxy, h.cfg.TrustedProxyCount),
				Success:  false,
			})
			h.writeError(w, r, server.UnauthorizedError())
			return
		}
		next(w, r)
	}
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.srv.RequestReset(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Identical wording whether or not the account exists.
	h.writeJSON(w, http.StatusOK, OKResponse{
		OK:      true,
		Message: "If an account exists for that email, a reset link has been sent.",
	})
}

func (h *Handler) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.srv.ConfirmReset(r.Context(), req.Token, req.Password, req.PasswordConfirm)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, OKResponse{OK: true, UserID: result.UserID, Email: result.Email})
}

func (h *Handler) handleVerifyUser(w http.ResponseWriter, r *http.Request) {
	var req VerifyUserRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.srv.VerifyUser(r.Context(), req.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, OKResponse{OK: true, UserID: req.UserID})
}

func (h *Handler) handleSendCredentials(w http.ResponseWriter, r *http.Request) {
	var req SendCredentialsRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	outcome, err := h.srv.Provision(r.Context(), server.ProvisionInput{
		Email:  req.Email,
		Name:   req.Name,
		UserID: req.UserID,
		Resend: req.Resend,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// The temporary password travels only in the email.
	h.writeJSON(w, http.StatusOK, OKResponse{
		OK:     true,
		Action: outcome.Action,
		UserID: outcome.UserID,
		Email:  outcome.Email,
	})
}

func (h *Handler) handleSetAuthStatus(w http.ResponseWriter, r *http.Request) {
	var req SetAuthStatusRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.IsActive == nil {
		h.writeError(w, r, server.ValidationError("isActive is required."))
		return
	}

	if err := h.srv.SetAuthStatus(r.Context(), req.UserID, *req.IsActive); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, OKResponse{OK: true, UserID: req.UserID, Status: req.IsActive})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req DeleteUserRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.srv.DeleteUser(r.Context(), req.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, OKResponse{OK: true, UserID: req.UserID})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, OKResponse{OK: true, Service: ServiceName})
}

// decode reads a JSON body into dst, mapping malformed or oversized input to
// validation errors.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return server.ValidationError("Request body is too large.")
		}
		return server.ValidationError("Unable to read the request body.")
	}
	if len(body) == 0 {
		return server.ValidationError("Request body is required.")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return server.ValidationError("Request body is not valid JSON.")
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *server.Error
	if !errors.As(err, &apiErr) {
		h.logger.ErrorContext(r.Context(), "Unclassified handler error",
			"error", err,
			"request_id", security.GetRequestID(r.Context()))
		apiErr = server.ProviderError("Internal error.", err)
	}

	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed",
			"code", apiErr.Code,
			"error", err,
			"request_id", security.GetRequestID(r.Context()))
	}

	h.writeJSON(w, apiErr.Status, ErrorResponse{OK: false, Code: apiErr.Code, Error: apiErr.Message})
}

func (h *Handler) audit(r *http.Request, event security.AuditEvent) {
	if h.auditor != nil {
		h.auditor.LogEvent(r.Context(), event)
	}
}

// statusWriter captures the response status for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
