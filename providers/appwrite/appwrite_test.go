package appwrite

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LemuelVelez/api-workload-hub/providers"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(Config{
		Endpoint:   srv.URL,
		ProjectID:  "test-project",
		APIKey:     "test-api-key",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing endpoint", Config{ProjectID: "p", APIKey: "k"}},
		{"missing project", Config{Endpoint: "https://x/v1", APIKey: "k"}},
		{"missing key", Config{Endpoint: "https://x/v1", ProjectID: "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFindByEmail(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Errorf("path = %s, want /users", r.URL.Path)
		}
		if got := r.Header.Get("X-Appwrite-Project"); got != "test-project" {
			t.Errorf("project header = %q", got)
		}
		if got := r.Header.Get("X-Appwrite-Key"); got != "test-api-key" {
			t.Errorf("key header = %q", got)
		}

		query := r.URL.Query().Get("queries[]")
		var q map[string]any
		if err := json.Unmarshal([]byte(query), &q); err != nil {
			t.Fatalf("query is not JSON: %q", query)
		}
		if q["method"] != "equal" || q["attribute"] != "email" {
			t.Errorf("unexpected query %v", q)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"users": []map[string]any{{
				"$id":               "user-1",
				"email":             "Alice@Example.COM",
				"name":              "Alice",
				"status":            true,
				"emailVerification": false,
			}},
		})
	})

	account, err := p.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if account.ID != "user-1" {
		t.Errorf("ID = %q", account.ID)
	}
	if account.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", account.Email)
	}
	if !account.Enabled || account.EmailVerified {
		t.Errorf("flags = enabled=%v verified=%v", account.Enabled, account.EmailVerified)
	}
}

func TestFindByEmailNotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"total": 0, "users": []any{}})
	})

	_, err := p.FindByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, providers.ErrAccountNotFound) {
		t.Errorf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestFindByIDNotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "User with the requested ID could not be found.",
			"code":    404,
			"type":    "user_not_found",
		})
	})

	_, err := p.FindByID(context.Background(), "missing")
	if !errors.Is(err, providers.ErrAccountNotFound) {
		t.Errorf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestCreate(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users" {
			t.Errorf("%s %s, want POST /users", r.Method, r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["userId"] != "new-id" || body["email"] != "bob@example.com" {
			t.Errorf("unexpected body %v", body)
		}
		if body["password"] == "" {
			t.Error("password missing from body")
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"$id":               "new-id",
			"email":             "bob@example.com",
			"name":              "Bob",
			"status":            true,
			"emailVerification": false,
		})
	})

	account, err := p.Create(context.Background(), "new-id", "Bob@Example.com", "s3cret-pw", "Bob")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if account.ID != "new-id" || account.Name != "Bob" {
		t.Errorf("account = %+v", account)
	}
}

func TestSetCredential(t *testing.T) {
	var gotPath, gotMethod string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		_ = json.NewEncoder(w).Encode(map[string]any{"$id": "user-1"})
	})

	if err := p.SetCredential(context.Background(), "user-1", "new-password"); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/users/user-1/password" {
		t.Errorf("%s %s, want PATCH /users/user-1/password", gotMethod, gotPath)
	}
}

func TestSetMetadataMergesPrefs(t *testing.T) {
	var patched map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"theme": "dark"})
		case http.MethodPatch:
			_ = json.NewDecoder(r.Body).Decode(&patched)
			_ = json.NewEncoder(w).Encode(map[string]any{})
		}
	})

	err := p.SetMetadata(context.Background(), "user-1", map[string]any{"mustChangePassword": true})
	if err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}

	prefs, ok := patched["prefs"].(map[string]any)
	if !ok {
		t.Fatalf("PATCH body missing prefs: %v", patched)
	}
	if prefs["theme"] != "dark" {
		t.Error("existing pref dropped during merge")
	}
	if prefs["mustChangePassword"] != true {
		t.Error("new pref not written")
	}
}

func TestStatusVerificationAndDelete(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	ctx := context.Background()
	if err := p.SetEnabled(ctx, "u1", false); err != nil {
		t.Fatal(err)
	}
	if err := p.SetEmailVerified(ctx, "u1", true); err != nil {
		t.Fatal(err)
	}
	if err := p.RevokeSessions(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := p.Delete(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	want := []call{
		{http.MethodPatch, "/users/u1/status"},
		{http.MethodPatch, "/users/u1/verification"},
		{http.MethodDelete, "/users/u1/sessions"},
		{http.MethodDelete, "/users/u1"},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, calls[i], want[i])
		}
	}
}

func TestAPIErrorSurfacesMessage(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "A user with the same email already exists.",
			"code":    409,
			"type":    "user_already_exists",
		})
	})

	_, err := p.Create(context.Background(), "id", "dup@example.com", "pw-123456", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, providers.ErrAccountNotFound) {
		t.Error("409 must not map to ErrAccountNotFound")
	}
}

func TestHealthCheck(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"total": 0, "users": []any{}})
	})
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestHealthCheckFailure(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "invalid key", "type": "general_unauthorized_scope"})
	})
	if err := p.HealthCheck(context.Background()); err == nil {
		t.Error("expected error for unauthorized key")
	}
}
