package workloadhub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LemuelVelez/api-workload-hub/notify"
	"github.com/LemuelVelez/api-workload-hub/providers"
	providermock "github.com/LemuelVelez/api-workload-hub/providers/mock"
	"github.com/LemuelVelez/api-workload-hub/security"
	"github.com/LemuelVelez/api-workload-hub/server"
	"github.com/LemuelVelez/api-workload-hub/storage/memory"
)

const testAdminKey = "test-admin-key-for-handler-tests"

type handlerEnv struct {
	handler  *Handler
	provider *providermock.Provider
	notifier *notify.Mock
}

func newHandlerEnv(t *testing.T, mutate ...func(*HandlerConfig)) *handlerEnv {
	t.Helper()

	provider := providermock.New()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	notifier := notify.NewMock()

	srv, err := server.New(provider, store, notifier, server.Config{AppOrigin: "https://app.example.com"}, server.Options{})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}

	adminKey, err := security.NewAdminKey(testAdminKey, nil)
	if err != nil {
		t.Fatalf("NewAdminKey: %v", err)
	}

	cfg := HandlerConfig{
		PublicURL:          "http://localhost:8080",
		AllowedOrigin:      "https://app.example.com",
		AdminKey:           adminKey,
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	h, err := NewHandler(srv, cfg, HandlerOptions{})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	t.Cleanup(h.Close)

	return &handlerEnv{handler: h, provider: provider, notifier: notifier}
}

func (e *handlerEnv) post(t *testing.T, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func (e *handlerEnv) postAdmin(t *testing.T, path, body string) *httptest.ResponseRecorder {
	return e.post(t, path, body, "Authorization", "Bearer "+testAdminKey)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return out
}

func TestForgotPasswordIdenticalResponses(t *testing.T) {
	env := newHandlerEnv(t)
	env.provider.Seed(&providers.Account{ID: "user-1", Email: "alice@example.com", Enabled: true})

	known := env.post(t, "/auth/forgot-password", `{"email":"alice@example.com"}`)
	unknown := env.post(t, "/auth/forgot-password", `{"email":"nobody@example.com"}`)

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d, want 200, 200", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Errorf("responses differ:\nknown:   %s\nunknown: %s", known.Body.String(), unknown.Body.String())
	}
}

func TestForgotPasswordMissingEmail(t *testing.T) {
	env := newHandlerEnv(t)
	w := env.post(t, "/auth/forgot-password", `{"email":""}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeBody[ErrorResponse](t, w)
	if resp.Code != server.CodeValidation {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestPasswordResetEndToEnd(t *testing.T) {
	env := newHandlerEnv(t)
	env.provider.Seed(&providers.Account{ID: "user-1", Email: "alice@example.com", Enabled: true})

	if w := env.post(t, "/auth/forgot-password", `{"email":"alice@example.com"}`); w.Code != http.StatusOK {
		t.Fatalf("forgot-password status = %d", w.Code)
	}

	msg := env.notifier.Last()
	if msg == nil {
		t.Fatal("no reset email sent")
	}
	marker := "?token="
	idx := strings.Index(msg.HTMLBody, marker)
	if idx == -1 {
		t.Fatal("no token in email")
	}
	token := msg.HTMLBody[idx+len(marker):]
	if end := strings.IndexAny(token, "\"< \n"); end != -1 {
		token = token[:end]
	}

	body := fmt.Sprintf(`{"token":%q,"password":"brand-new-pw-1","passwordConfirm":"brand-new-pw-1"}`, token)
	w := env.post(t, "/auth/password-reset", body)
	if w.Code != http.StatusOK {
		t.Fatalf("password-reset status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[OKResponse](t, w)
	if resp.UserID != "user-1" || resp.Email != "alice@example.com" {
		t.Errorf("response = %+v", resp)
	}

	// Replay is rejected.
	if w := env.post(t, "/auth/password-reset", body); w.Code != http.StatusBadRequest {
		t.Errorf("replay status = %d, want 400", w.Code)
	}
}

func TestPasswordResetInvalidToken(t *testing.T) {
	env := newHandlerEnv(t)
	w := env.post(t, "/auth/password-reset", `{"token":"bogus","password":"brand-new-pw-1"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeBody[ErrorResponse](t, w)
	if resp.Code != server.CodeInvalidOrExpiredToken {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestVerifyUserEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	env.provider.Seed(&providers.Account{ID: "user-1", Email: "alice@example.com", Enabled: true})

	w := env.post(t, "/auth/verify-user", `{"userId":"user-1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	if w := env.post(t, "/auth/verify-user", `{"userId":"ghost"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", w.Code)
	}
}

func TestAdminEndpointsRequireKey(t *testing.T) {
	env := newHandlerEnv(t)

	paths := []string{
		"/admin/send-login-credentials",
		"/admin/set-auth-status",
		"/admin/delete-auth-user",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			if w := env.post(t, path, `{}`); w.Code != http.StatusUnauthorized {
				t.Errorf("missing key status = %d, want 401", w.Code)
			}
			if w := env.post(t, path, `{}`, "Authorization", "Bearer wrong-key"); w.Code != http.StatusUnauthorized {
				t.Errorf("wrong key status = %d, want 401", w.Code)
			}
		})
	}
}

func TestSendCredentialsEndpoint(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.postAdmin(t, "/admin/send-login-credentials", `{"email":"bob@example.com","name":"Bob"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[OKResponse](t, w)
	if resp.Action != server.ActionCreated || resp.UserID == "" {
		t.Errorf("response = %+v", resp)
	}
	if env.notifier.Last() == nil {
		t.Fatal("no credentials email sent")
	}

	// Same email again without resend conflicts.
	if w := env.postAdmin(t, "/admin/send-login-credentials", `{"email":"bob@example.com"}`); w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}

	// Resend for an unknown email is 404.
	if w := env.postAdmin(t, "/admin/send-login-credentials", `{"email":"ghost@example.com","resend":true}`); w.Code != http.StatusNotFound {
		t.Errorf("resend-unknown status = %d, want 404", w.Code)
	}
}

func TestSetAuthStatusEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	env.provider.Seed(&providers.Account{ID: "user-1", Email: "alice@example.com", Enabled: true})

	w := env.postAdmin(t, "/admin/set-auth-status", `{"userId":"user-1","isActive":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[OKResponse](t, w)
	if resp.Status == nil || *resp.Status != false {
		t.Errorf("response = %+v", resp)
	}

	if w := env.postAdmin(t, "/admin/set-auth-status", `{"userId":"user-1"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing isActive status = %d, want 400", w.Code)
	}
}

func TestDeleteUserEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	env.provider.Seed(&providers.Account{ID: "user-1", Email: "alice@example.com", Enabled: true})

	if w := env.postAdmin(t, "/admin/delete-auth-user", `{"userId":"user-1"}`); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	// Idempotent.
	if w := env.postAdmin(t, "/admin/delete-auth-user", `{"userId":"user-1"}`); w.Code != http.StatusOK {
		t.Errorf("second delete status = %d, want 200", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newHandlerEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeBody[OKResponse](t, w)
	if !resp.OK || resp.Service != ServiceName {
		t.Errorf("response = %+v", resp)
	}
}

func TestRateLimitOnForgotPassword(t *testing.T) {
	env := newHandlerEnv(t, func(c *HandlerConfig) {
		c.RateLimitPerSecond = 1
		c.RateLimitBurst = 2
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = env.post(t, "/auth/forgot-password", `{"email":"x@example.com"}`)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
	resp := decodeBody[ErrorResponse](t, last)
	if resp.Code != server.CodeRateLimited {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newHandlerEnv(t)

	r := httptest.NewRequest(http.MethodOptions, "/auth/forgot-password", nil)
	r.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow-origin = %q", got)
	}
}

func TestMalformedJSON(t *testing.T) {
	env := newHandlerEnv(t)
	w := env.post(t, "/auth/forgot-password", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	env := newHandlerEnv(t, func(c *HandlerConfig) { c.MaxBodyBytes = 64 })

	big := `{"email":"` + strings.Repeat("a", 128) + `@example.com"}`
	w := env.post(t, "/auth/forgot-password", big)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	env := newHandlerEnv(t)
	w := env.post(t, "/auth/forgot-password", `{"email":""}`)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("nosniff header = %q", got)
	}
	if w.Header().Get(security.RequestIDHeader) == "" {
		t.Error("request ID header missing")
	}
}
