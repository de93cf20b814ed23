package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusbridge/admin-console/internal/ports"
)

// VaultFactory builds the durable store for one console session.
type VaultFactory func(consoleSessionID string) ports.SessionVault

// Manager owns one Authority per console session. The session ID comes from
// the browser cookie, so every tab of the same browser shares a single
// authority and therefore a single consistent session state. Authorities are
// created lazily and initialized exactly once.
type Manager struct {
	vaults       VaultFactory
	auth         ports.AuthProvider
	impersonator ports.Impersonator
	audit        ports.AuditRecorder
	logger       *slog.Logger
	clock        func() time.Time

	mu          sync.Mutex
	authorities map[string]*managedAuthority
}

type managedAuthority struct {
	authority *Authority
	initOnce  sync.Once
	initErr   error
}

// ManagerOptions groups dependencies for Manager.
type ManagerOptions struct {
	Vaults       VaultFactory
	Auth         ports.AuthProvider
	Impersonator ports.Impersonator
	Audit        ports.AuditRecorder
	Logger       *slog.Logger
	Clock        func() time.Time
}

func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		vaults:       opts.Vaults,
		auth:         opts.Auth,
		impersonator: opts.Impersonator,
		audit:        opts.Audit,
		logger:       logger,
		clock:        opts.Clock,
		authorities:  make(map[string]*managedAuthority),
	}
}

// NewConsoleSessionID mints an opaque identifier for a fresh console session.
func NewConsoleSessionID() string {
	return uuid.NewString()
}

// Authority returns the session authority for consoleSessionID, creating and
// initializing it on first use. Initialization runs once per session even
// under concurrent first requests; its error is returned to every caller of
// that first round and then forgotten, matching restore-once semantics.
func (m *Manager) Authority(ctx context.Context, consoleSessionID string) (*Authority, error) {
	m.mu.Lock()
	entry, ok := m.authorities[consoleSessionID]
	if !ok {
		entry = &managedAuthority{
			authority: NewAuthority(AuthorityOptions{
				Vault:        m.vaults(consoleSessionID),
				Auth:         m.auth,
				Impersonator: m.impersonator,
				Audit:        m.audit,
				Logger:       m.logger.With("console_session", consoleSessionID),
				Clock:        m.clock,
			}),
		}
		m.authorities[consoleSessionID] = entry
	}
	m.mu.Unlock()

	entry.initOnce.Do(func() {
		entry.initErr = entry.authority.Initialize(ctx)
	})
	return entry.authority, entry.initErr
}

// Remove drops the in-memory authority for consoleSessionID. Durable records
// are the authority's to clear; Remove only frees the live instance, so it is
// called after Logout, not instead of it.
func (m *Manager) Remove(consoleSessionID string) {
	m.mu.Lock()
	delete(m.authorities, consoleSessionID)
	m.mu.Unlock()
}

// Len reports the number of live authorities, for introspection and tests.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.authorities)
}
