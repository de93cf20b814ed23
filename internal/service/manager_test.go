package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	mocks "github.com/campusbridge/admin-console/internal/mocks/auth"
	"github.com/campusbridge/admin-console/internal/ports"
)

func newTestManager(vaults map[string]*mocks.MemoryVault) *Manager {
	return NewManager(ManagerOptions{
		Vaults: func(id string) ports.SessionVault {
			v, ok := vaults[id]
			if !ok {
				v = mocks.NewMemoryVault()
				vaults[id] = v
			}
			return v
		},
		Auth:         mocks.NewMockAuthProvider(),
		Impersonator: mocks.NewMockImpersonator(),
		Logger:       testLogger(),
	})
}

func TestManager_SameSessionSharesAuthority(t *testing.T) {
	m := newTestManager(map[string]*mocks.MemoryVault{})
	ctx := context.Background()

	a1, err := m.Authority(ctx, "sess-1")
	require.NoError(t, err)
	a2, err := m.Authority(ctx, "sess-1")
	require.NoError(t, err)

	// Two tabs of the same browser observe one authority, so a login in
	// one is instantly visible in the other.
	assert.Same(t, a1, a2)
	require.NoError(t, a1.Login(ctx, "ada@campus.example", "secret"))
	assert.Equal(t, domainauth.PhaseAuthenticated, a2.State().Phase)
}

func TestManager_DistinctSessionsAreIsolated(t *testing.T) {
	m := newTestManager(map[string]*mocks.MemoryVault{})
	ctx := context.Background()

	a1, err := m.Authority(ctx, "sess-1")
	require.NoError(t, err)
	a2, err := m.Authority(ctx, "sess-2")
	require.NoError(t, err)

	require.NoError(t, a1.Login(ctx, "ada@campus.example", "secret"))

	assert.NotSame(t, a1, a2)
	assert.Equal(t, domainauth.PhaseUnauthenticated, a2.State().Phase)
}

func TestManager_InitializesFromSessionVault(t *testing.T) {
	vault := mocks.NewMemoryVault()
	ctx := context.Background()
	require.NoError(t, vault.SaveCredentials(ctx, ports.Credentials{Token: "tok-1", Admin: adminProfile()}))

	m := newTestManager(map[string]*mocks.MemoryVault{"sess-1": vault})

	a, err := m.Authority(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.PhaseAuthenticated, a.State().Phase)
}

func TestManager_Remove(t *testing.T) {
	m := newTestManager(map[string]*mocks.MemoryVault{})
	ctx := context.Background()

	_, err := m.Authority(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	m.Remove("sess-1")
	assert.Equal(t, 0, m.Len())

	// A later request with the same cookie gets a fresh authority that
	// restores from the vault again.
	a, err := m.Authority(ctx, "sess-1")
	require.NoError(t, err)
	assert.NotNil(t, a)
	assert.Equal(t, 1, m.Len())
}

func TestNewConsoleSessionID_Unique(t *testing.T) {
	a := NewConsoleSessionID()
	b := NewConsoleSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
