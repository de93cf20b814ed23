package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	"github.com/campusbridge/admin-console/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider = (*MockAuthProvider)(nil)
	_ ports.Impersonator = (*MockImpersonator)(nil)
	_ ports.SessionVault = (*MemoryVault)(nil)
)

// MockAuthProvider simulates the platform auth service with deterministic
// responses. Per-method Func hooks override the default behavior entirely.
type MockAuthProvider struct {
	LoginFunc    func(ctx context.Context, email, secret string) (ports.Credentials, error)
	ValidateFunc func(ctx context.Context, token string) (bool, error)
	LogoutFunc   func(ctx context.Context, token string) error

	// Deterministic values for predictable testing
	Token        string
	DefaultAdmin domainauth.AdminProfile

	mu          sync.Mutex
	loginCalls  int
	logoutCalls int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults:
// every login succeeds with an admin profile holding IMPERSONATE_USER.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		Token: "mock-token-1",
		DefaultAdmin: domainauth.AdminProfile{
			ID:    "mock-admin-1",
			Name:  "Mock Admin",
			Email: "mock.admin@example.com",
			Role:  domainauth.RoleAdmin,
			Permissions: domainauth.NewPermissionSet(
				domainauth.PermManageUsers,
				domainauth.PermImpersonateUser,
			),
		},
	}
}

func (m *MockAuthProvider) Login(ctx context.Context, email, secret string) (ports.Credentials, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, secret)
	}

	m.mu.Lock()
	m.loginCalls++
	n := m.loginCalls
	m.mu.Unlock()

	token := m.Token
	if token == "" {
		token = fmt.Sprintf("mock-token-%d", n)
	}
	admin := m.DefaultAdmin
	if email != "" {
		admin.Email = email
	}
	return ports.Credentials{Token: token, Admin: admin}, nil
}

func (m *MockAuthProvider) ValidateSession(ctx context.Context, token string) (bool, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, token)
	}
	return token != "", nil
}

func (m *MockAuthProvider) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	m.mu.Lock()
	m.logoutCalls++
	m.mu.Unlock()
	return nil
}

// LogoutCalls reports how many times Logout ran the default path.
func (m *MockAuthProvider) LogoutCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logoutCalls
}

// MockImpersonator simulates the platform impersonation endpoints.
type MockImpersonator struct {
	StartFunc func(ctx context.Context, targetUserID, actingAdminEmail string) (domainauth.ImpersonatedProfile, error)
	EndFunc   func(ctx context.Context, targetUserID, actingAdminEmail string) error

	// DefaultProfile seeds the returned identity; its ID is replaced by
	// the requested target ID.
	DefaultProfile domainauth.ImpersonatedProfile

	mu       sync.Mutex
	endCalls int
}

// NewMockImpersonator creates a MockImpersonator returning a student profile.
func NewMockImpersonator() *MockImpersonator {
	return &MockImpersonator{
		DefaultProfile: domainauth.ImpersonatedProfile{
			Name:  "Mock Student",
			Email: "mock.student@example.com",
			Role:  domainauth.RoleStudent,
			RoleFields: map[string]any{
				"enrollment_no": "EN-001",
			},
		},
	}
}

func (m *MockImpersonator) Start(ctx context.Context, targetUserID, actingAdminEmail string) (domainauth.ImpersonatedProfile, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, targetUserID, actingAdminEmail)
	}
	profile := m.DefaultProfile
	profile.ID = targetUserID
	return profile, nil
}

func (m *MockImpersonator) End(ctx context.Context, targetUserID, actingAdminEmail string) error {
	if m.EndFunc != nil {
		return m.EndFunc(ctx, targetUserID, actingAdminEmail)
	}
	m.mu.Lock()
	m.endCalls++
	m.mu.Unlock()
	return nil
}

// EndCalls reports how many times End ran the default path.
func (m *MockImpersonator) EndCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endCalls
}

// MemoryVault is an in-memory session vault for unit tests. Per-method Err
// fields force failures to exercise error paths.
type MemoryVault struct {
	mu            sync.Mutex
	creds         *ports.Credentials
	impersonation *domainauth.ImpersonationRecord

	SaveCredentialsErr   error
	LoadCredentialsErr   error
	SaveImpersonationErr error
	DeleteErr            error
	ClearErr             error
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{}
}

func (m *MemoryVault) SaveCredentials(_ context.Context, creds ports.Credentials) error {
	if m.SaveCredentialsErr != nil {
		return m.SaveCredentialsErr
	}
	if creds.Token == "" {
		return errors.New("token cannot be empty")
	}
	m.mu.Lock()
	c := creds
	m.creds = &c
	m.mu.Unlock()
	return nil
}

func (m *MemoryVault) LoadCredentials(_ context.Context) (ports.Credentials, bool, error) {
	if m.LoadCredentialsErr != nil {
		return ports.Credentials{}, false, m.LoadCredentialsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return ports.Credentials{}, false, nil
	}
	return *m.creds, true, nil
}

func (m *MemoryVault) SaveImpersonation(_ context.Context, rec domainauth.ImpersonationRecord) error {
	if m.SaveImpersonationErr != nil {
		return m.SaveImpersonationErr
	}
	m.mu.Lock()
	r := rec
	m.impersonation = &r
	m.mu.Unlock()
	return nil
}

func (m *MemoryVault) LoadImpersonation(_ context.Context) (*domainauth.ImpersonationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.impersonation == nil {
		return nil, nil
	}
	r := *m.impersonation
	return &r, nil
}

func (m *MemoryVault) DeleteImpersonation(_ context.Context) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	m.impersonation = nil
	m.mu.Unlock()
	return nil
}

func (m *MemoryVault) Clear(_ context.Context) error {
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.mu.Lock()
	m.creds = nil
	m.impersonation = nil
	m.mu.Unlock()
	return nil
}

// HasCredentials reports whether a credential pair is stored.
func (m *MemoryVault) HasCredentials() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds != nil
}

// HasImpersonation reports whether an impersonation record is stored.
func (m *MemoryVault) HasImpersonation() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.impersonation != nil
}
