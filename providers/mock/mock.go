// Package mock provides a configurable in-memory identity provider for
// tests. Each method delegates to an optional function field; unset fields
// fall back to a sensible default over the seeded accounts.
package mock

import (
	"context"
	"sync"

	"github.com/LemuelVelez/api-workload-hub/internal/util"
	"github.com/LemuelVelez/api-workload-hub/providers"
)

// Provider is a test double for providers.Provider. Function fields override
// individual operations; the embedded account map backs the defaults.
// All methods are safe for concurrent use.
type Provider struct {
	mu       sync.Mutex
	accounts map[string]*providers.Account // keyed by ID
	calls    map[string]int

	FindByEmailFunc      func(ctx context.Context, email string) (*providers.Account, error)
	FindByIDFunc         func(ctx context.Context, id string) (*providers.Account, error)
	CreateFunc           func(ctx context.Context, id, email, password, name string) (*providers.Account, error)
	SetCredentialFunc    func(ctx context.Context, id, password string) error
	SetMetadataFunc      func(ctx context.Context, id string, metadata map[string]any) error
	SetEnabledFunc       func(ctx context.Context, id string, enabled bool) error
	SetEmailVerifiedFunc func(ctx context.Context, id string, verified bool) error
	RevokeSessionsFunc   func(ctx context.Context, id string) error
	DeleteFunc           func(ctx context.Context, id string) error
	HealthCheckFunc      func(ctx context.Context) error
}

var _ providers.Provider = (*Provider)(nil)

// New returns an empty mock provider.
func New() *Provider {
	return &Provider{
		accounts: make(map[string]*providers.Account),
		calls:    make(map[string]int),
	}
}

// Seed adds an account to the backing map.
func (m *Provider) Seed(account *providers.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *account
	copied.Email = util.NormalizeEmail(copied.Email)
	m.accounts[copied.ID] = &copied
}

// Account returns the current state of a seeded or created account.
func (m *Provider) Account(id string) *providers.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		copied := *a
		return &copied
	}
	return nil
}

// Calls returns how many times the named method was invoked.
func (m *Provider) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *Provider) record(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

// Name implements providers.Provider.
func (m *Provider) Name() string {
	return "mock"
}

// FindByEmail implements providers.Provider.
func (m *Provider) FindByEmail(ctx context.Context, email string) (*providers.Account, error) {
	m.record("FindByEmail")
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}

	normalized := util.NormalizeEmail(email)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == normalized {
			copied := *a
			return &copied, nil
		}
	}
	return nil, providers.ErrAccountNotFound
}

// FindByID implements providers.Provider.
func (m *Provider) FindByID(ctx context.Context, id string) (*providers.Account, error) {
	m.record("FindByID")
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, providers.ErrAccountNotFound
}

// Create implements providers.Provider.
func (m *Provider) Create(ctx context.Context, id, email, password, name string) (*providers.Account, error) {
	m.record("Create")
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, id, email, password, name)
	}

	account := &providers.Account{
		ID:      id,
		Email:   util.NormalizeEmail(email),
		Name:    name,
		Enabled: true,
	}
	m.mu.Lock()
	m.accounts[id] = account
	m.mu.Unlock()

	copied := *account
	return &copied, nil
}

// SetCredential implements providers.Provider.
func (m *Provider) SetCredential(ctx context.Context, id, password string) error {
	m.record("SetCredential")
	if m.SetCredentialFunc != nil {
		return m.SetCredentialFunc(ctx, id, password)
	}
	return m.requireAccount(id)
}

// SetMetadata implements providers.Provider.
func (m *Provider) SetMetadata(ctx context.Context, id string, metadata map[string]any) error {
	m.record("SetMetadata")
	if m.SetMetadataFunc != nil {
		return m.SetMetadataFunc(ctx, id, metadata)
	}
	return m.requireAccount(id)
}

// SetEnabled implements providers.Provider.
func (m *Provider) SetEnabled(ctx context.Context, id string, enabled bool) error {
	m.record("SetEnabled")
	if m.SetEnabledFunc != nil {
		return m.SetEnabledFunc(ctx, id, enabled)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return providers.ErrAccountNotFound
	}
	a.Enabled = enabled
	return nil
}

// SetEmailVerified implements providers.Provider.
func (m *Provider) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	m.record("SetEmailVerified")
	if m.SetEmailVerifiedFunc != nil {
		return m.SetEmailVerifiedFunc(ctx, id, verified)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return providers.ErrAccountNotFound
	}
	a.EmailVerified = verified
	return nil
}

// RevokeSessions implements providers.Provider.
func (m *Provider) RevokeSessions(ctx context.Context, id string) error {
	m.record("RevokeSessions")
	if m.RevokeSessionsFunc != nil {
		return m.RevokeSessionsFunc(ctx, id)
	}
	return m.requireAccount(id)
}

// Delete implements providers.Provider.
func (m *Provider) Delete(ctx context.Context, id string) error {
	m.record("Delete")
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return providers.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

// HealthCheck implements providers.Provider.
func (m *Provider) HealthCheck(ctx context.Context) error {
	m.record("HealthCheck")
	if m.HealthCheckFunc != nil {
		return m.HealthCheckFunc(ctx)
	}
	return nil
}

func (m *Provider) requireAccount(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return providers.ErrAccountNotFound
	}
	return nil
}
