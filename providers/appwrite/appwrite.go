// Package appwrite implements the identity provider contract against the
// Appwrite Users REST API using a server API key.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LemuelVelez/api-workload-hub/internal/util"
	"github.com/LemuelVelez/api-workload-hub/providers"
)

const defaultTimeout = 10 * time.Second

// Config holds the connection settings for an Appwrite project.
type Config struct {
	// Endpoint is the API base URL, e.g. "https://cloud.appwrite.io/v1".
	Endpoint string

	// ProjectID identifies the Appwrite project.
	ProjectID string

	// APIKey is a server key with users.read and users.write scopes.
	APIKey string

	// HTTPClient optionally overrides the default client.
	HTTPClient *http.Client

	// Logger optionally overrides slog.Default().
	Logger *slog.Logger
}

// Provider talks to the Appwrite Users API.
type Provider struct {
	endpoint   string
	projectID  string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ providers.Provider = (*Provider)(nil)

// New validates the config and returns an Appwrite-backed provider.
func New(cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("appwrite endpoint is required")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("appwrite project ID is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("appwrite API key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("Appwrite provider configured",
		"endpoint", cfg.Endpoint,
		"project_id", cfg.ProjectID,
		"api_key", redactKey(cfg.APIKey))

	return &Provider{
		endpoint:   util.NormalizeOrigin(cfg.Endpoint),
		projectID:  cfg.ProjectID,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Name implements providers.Provider.
func (p *Provider) Name() string {
	return "appwrite"
}

// userDocument mirrors the fields of an Appwrite user record this service
// cares about.
type userDocument struct {
	ID                string `json:"$id"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	Status            bool   `json:"status"`
	EmailVerification bool   `json:"emailVerification"`
}

type userList struct {
	Total int            `json:"total"`
	Users []userDocument `json:"users"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

func (d *userDocument) toAccount() *providers.Account {
	return &providers.Account{
		ID:            d.ID,
		Email:         util.NormalizeEmail(d.Email),
		Name:          d.Name,
		Enabled:       d.Status,
		EmailVerified: d.EmailVerification,
	}
}

// FindByEmail implements providers.Provider.
func (p *Provider) FindByEmail(ctx context.Context, email string) (*providers.Account, error) {
	query := equalQuery("email", util.NormalizeEmail(email))
	path := "/users?" + url.Values{"queries[]": {query}}.Encode()

	var list userList
	if err := p.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Users) == 0 {
		return nil, providers.ErrAccountNotFound
	}
	return list.Users[0].toAccount(), nil
}

// FindByID implements providers.Provider.
func (p *Provider) FindByID(ctx context.Context, id string) (*providers.Account, error) {
	var doc userDocument
	if err := p.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return doc.toAccount(), nil
}

// Create implements providers.Provider.
func (p *Provider) Create(ctx context.Context, id, email, password, name string) (*providers.Account, error) {
	body := map[string]any{
		"userId":   id,
		"email":    util.NormalizeEmail(email),
		"password": password,
	}
	if name != "" {
		body["name"] = name
	}

	var doc userDocument
	if err := p.do(ctx, http.MethodPost, "/users", body, &doc); err != nil {
		return nil, err
	}
	return doc.toAccount(), nil
}

// SetCredential implements providers.Provider.
func (p *Provider) SetCredential(ctx context.Context, id, password string) error {
	body := map[string]any{"password": password}
	return p.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/password", body, nil)
}

// SetMetadata implements providers.Provider. Appwrite's prefs endpoint
// replaces the whole document, so the current prefs are fetched and merged
// before writing.
func (p *Provider) SetMetadata(ctx context.Context, id string, metadata map[string]any) error {
	prefsPath := "/users/" + url.PathEscape(id) + "/prefs"

	current := map[string]any{}
	if err := p.do(ctx, http.MethodGet, prefsPath, nil, &current); err != nil {
		return err
	}
	for k, v := range metadata {
		current[k] = v
	}

	return p.do(ctx, http.MethodPatch, prefsPath, map[string]any{"prefs": current}, nil)
}

// SetEnabled implements providers.Provider.
func (p *Provider) SetEnabled(ctx context.Context, id string, enabled bool) error {
	body := map[string]any{"status": enabled}
	return p.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/status", body, nil)
}

// SetEmailVerified implements providers.Provider.
func (p *Provider) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	body := map[string]any{"emailVerification": verified}
	return p.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/verification", body, nil)
}

// RevokeSessions implements providers.Provider.
func (p *Provider) RevokeSessions(ctx context.Context, id string) error {
	return p.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id)+"/sessions", nil, nil)
}

// Delete implements providers.Provider.
func (p *Provider) Delete(ctx context.Context, id string) error {
	return p.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

// HealthCheck implements providers.Provider. Listing a single user exercises
// both connectivity and API key scopes.
func (p *Provider) HealthCheck(ctx context.Context) error {
	path := "/users?" + url.Values{"queries[]": {limitQuery(1)}}.Encode()
	var list userList
	return p.do(ctx, http.MethodGet, path, nil, &list)
}

// do performs a JSON request against the Appwrite API and decodes the
// response into out when non-nil. HTTP 404 maps to ErrAccountNotFound.
func (p *Provider) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.endpoint+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Appwrite-Project", p.projectID)
	req.Header.Set("X-Appwrite-Key", p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("appwrite request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return providers.ErrAccountNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			p.logger.Debug("Appwrite API error",
				"status", resp.StatusCode,
				"type", apiErr.Type)
			return fmt.Errorf("appwrite API error (%d %s): %s", resp.StatusCode, apiErr.Type, apiErr.Message)
		}
		return fmt.Errorf("appwrite API error: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8192))
	}
	return nil
}

// equalQuery builds an Appwrite equality query in the JSON syntax used by
// Appwrite 1.4 and later.
func equalQuery(attribute, value string) string {
	q := map[string]any{
		"method":    "equal",
		"attribute": attribute,
		"values":    []string{value},
	}
	encoded, _ := json.Marshal(q)
	return string(encoded)
}

func limitQuery(n int) string {
	q := map[string]any{
		"method": "limit",
		"values": []int{n},
	}
	encoded, _ := json.Marshal(q)
	return string(encoded)
}

func redactKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}
