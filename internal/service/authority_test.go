package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainaudit "github.com/campusbridge/admin-console/internal/domain/audit"
	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	mocks "github.com/campusbridge/admin-console/internal/mocks/auth"
	"github.com/campusbridge/admin-console/internal/ports"
)

// recordingAudit captures audit events for assertions.
type recordingAudit struct {
	events []domainaudit.Event
	err    error
}

func (r *recordingAudit) Record(_ context.Context, event domainaudit.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingAudit) kinds() []domainaudit.Kind {
	out := make([]domainaudit.Kind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func adminProfile() domainauth.AdminProfile {
	return domainauth.AdminProfile{
		ID:    "admin-1",
		Name:  "Ada Admin",
		Email: "ada@campus.example",
		Role:  domainauth.RoleAdmin,
		Permissions: domainauth.NewPermissionSet(
			domainauth.PermManageUsers,
			domainauth.PermImpersonateUser,
		),
	}
}

func newTestAuthority(vault ports.SessionVault, auth ports.AuthProvider, imp ports.Impersonator, audit ports.AuditRecorder) *Authority {
	return NewAuthority(AuthorityOptions{
		Vault:        vault,
		Auth:         auth,
		Impersonator: imp,
		Audit:        audit,
		Logger:       testLogger(),
		Clock:        func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func TestAuthority_StartsLoading(t *testing.T) {
	a := newTestAuthority(mocks.NewMemoryVault(), mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)

	state := a.State()
	assert.Equal(t, domainauth.PhaseLoading, state.Phase)
	assert.False(t, state.Authenticated())
}

func TestAuthority_Initialize_NoCredentials(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	provider.ValidateFunc = func(_ context.Context, _ string) (bool, error) {
		t.Fatal("validation must not be called without stored credentials")
		return false, nil
	}
	a := newTestAuthority(mocks.NewMemoryVault(), provider, mocks.NewMockImpersonator(), nil)

	require.NoError(t, a.Initialize(context.Background()))
	assert.Equal(t, domainauth.PhaseUnauthenticated, a.State().Phase)
}

func TestAuthority_Initialize_ValidToken(t *testing.T) {
	vault := mocks.NewMemoryVault()
	ctx := context.Background()
	require.NoError(t, vault.SaveCredentials(ctx, ports.Credentials{Token: "tok-1", Admin: adminProfile()}))

	a := newTestAuthority(vault, mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)

	require.NoError(t, a.Initialize(ctx))

	state := a.State()
	assert.Equal(t, domainauth.PhaseAuthenticated, state.Phase)
	require.NotNil(t, state.Admin)
	assert.Equal(t, "admin-1", state.Admin.ID)
}

func TestAuthority_Initialize_RestoresImpersonation(t *testing.T) {
	vault := mocks.NewMemoryVault()
	ctx := context.Background()
	require.NoError(t, vault.SaveCredentials(ctx, ports.Credentials{Token: "tok-1", Admin: adminProfile()}))
	require.NoError(t, vault.SaveImpersonation(ctx, domainauth.ImpersonationRecord{
		OriginalAdmin:    adminProfile(),
		ImpersonatedUser: domainauth.ImpersonatedProfile{ID: "s1", Role: domainauth.RoleStudent},
	}))

	a := newTestAuthority(vault, mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)

	require.NoError(t, a.Initialize(ctx))

	state := a.State()
	assert.Equal(t, domainauth.PhaseImpersonating, state.Phase)
	require.NotNil(t, state.Impersonation)
	assert.Equal(t, "s1", state.Impersonation.ImpersonatedUser.ID)
}

func TestAuthority_Initialize_DropsImpersonationWithoutPermission(t *testing.T) {
	admin := adminProfile()
	admin.Permissions = domainauth.NewPermissionSet(domainauth.PermManageUsers)

	vault := mocks.NewMemoryVault()
	ctx := context.Background()
	require.NoError(t, vault.SaveCredentials(ctx, ports.Credentials{Token: "tok-1", Admin: admin}))
	require.NoError(t, vault.SaveImpersonation(ctx, domainauth.ImpersonationRecord{
		OriginalAdmin:    admin,
		ImpersonatedUser: domainauth.ImpersonatedProfile{ID: "s1", Role: domainauth.RoleStudent},
	}))

	a := newTestAuthority(vault, mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)

	require.NoError(t, a.Initialize(ctx))

	assert.Equal(t, domainauth.PhaseAuthenticated, a.State().Phase)
	assert.False(t, vault.HasImpersonation())
}

func TestAuthority_Initialize_ExplicitInvalidClearsEverything(t *testing.T) {
	vault := mocks.NewMemoryVault()
	ctx := context.Background()
	require.NoError(t, vault.SaveCredentials(ctx, ports.Credentials{Token: "tok-1", Admin: adminProfile()}))

	provider := mocks.NewMockAuthProvider()
	provider.ValidateFunc = func(_ context.Context, _ string) (bool, error) { return false, nil }

	a := newTestAuthority(vault, provider, mocks.NewMockImpersonator(), nil)

	require.NoError(t, a.Initialize(ctx))

	assert.Equal(t, domainauth.PhaseUnauthenticated, a.State().Phase)
	assert.False(t, vault.HasCredentials())
}

func TestAuthority_Initialize_FallbackTrustAdoptsAdmin(t *testing.T) {
	vault := mocks.NewMemoryVault()
	ctx := context.Background()
	require.NoError(t, vault.SaveCredentials(ctx, ports.Credentials{Token: "tok-1", Admin: adminProfile()}))
	require.NoError(t, vault.SaveImpersonation(ctx, domainauth.ImpersonationRecord{
		OriginalAdmin:    adminProfile(),
		ImpersonatedUser: domainauth.ImpersonatedProfile{ID: "s1", Role: domainauth.RoleStudent},
	}))

	provider := mocks.NewMockAuthProvider()
	provider.ValidateFunc = func(_ context.Context, _ string) (bool, error) {
		return false, &domainauth.NetworkError{Op: "validate", Cause: errors.New("connection refused")}
	}
	audit := &recordingAudit{}

	a := newTestAuthority(vault, provider, mocks.NewMockImpersonator(), audit)

	require.NoError(t, a.Initialize(ctx))

	state := a.State()
	assert.Equal(t, domainauth.PhaseAuthenticated, state.Phase)
	require.NotNil(t, state.Admin)
	assert.Equal(t, "admin-1", state.Admin.ID)

	// The unconfirmed impersonation record is not adopted offline.
	assert.Nil(t, state.Impersonation)
	assert.False(t, vault.HasImpersonation())

	assert.Contains(t, audit.kinds(), domainaudit.KindFallbackTrust)
}

func TestAuthority_Initialize_FallbackTrustDiscardsNonAdmin(t *testing.T) {
	student := adminProfile()
	student.Role = domainauth.RoleStudent

	vault := mocks.NewMemoryVault()
	ctx := context.Background()
	require.NoError(t, vault.SaveCredentials(ctx, ports.Credentials{Token: "tok-1", Admin: student}))

	provider := mocks.NewMockAuthProvider()
	provider.ValidateFunc = func(_ context.Context, _ string) (bool, error) {
		return false, &domainauth.NetworkError{Op: "validate", Cause: errors.New("timeout")}
	}

	a := newTestAuthority(vault, provider, mocks.NewMockImpersonator(), nil)

	require.NoError(t, a.Initialize(ctx))

	assert.Equal(t, domainauth.PhaseUnauthenticated, a.State().Phase)
	assert.False(t, vault.HasCredentials())
}

func TestAuthority_Initialize_NotifiesSubscribersOnce(t *testing.T) {
	a := newTestAuthority(mocks.NewMemoryVault(), mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)

	var got []domainauth.SessionPhase
	a.Subscribe(func(s domainauth.SessionState) { got = append(got, s.Phase) })

	require.NoError(t, a.Initialize(context.Background()))

	assert.Equal(t, []domainauth.SessionPhase{domainauth.PhaseUnauthenticated}, got)
}

func TestAuthority_Login_Success(t *testing.T) {
	vault := mocks.NewMemoryVault()
	audit := &recordingAudit{}
	a := newTestAuthority(vault, mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), audit)
	require.NoError(t, a.Initialize(context.Background()))

	var phases []domainauth.SessionPhase
	a.Subscribe(func(s domainauth.SessionState) { phases = append(phases, s.Phase) })

	require.NoError(t, a.Login(context.Background(), "ada@campus.example", "secret"))

	state := a.State()
	assert.Equal(t, domainauth.PhaseAuthenticated, state.Phase)
	assert.Equal(t, "ada@campus.example", state.Admin.Email)
	assert.True(t, vault.HasCredentials())
	assert.Equal(t, []domainauth.SessionPhase{domainauth.PhaseAuthenticated}, phases)
	assert.Equal(t, []domainaudit.Kind{domainaudit.KindLogin}, audit.kinds())
}

func TestAuthority_Login_RejectedLeavesStateUntouched(t *testing.T) {
	vault := mocks.NewMemoryVault()
	provider := &mocks.MockAuthProvider{
		LoginFunc: func(_ context.Context, _, _ string) (ports.Credentials, error) {
			return ports.Credentials{}, domainauth.ErrInvalidCredentials
		},
	}
	audit := &recordingAudit{}
	a := newTestAuthority(vault, provider, mocks.NewMockImpersonator(), audit)
	require.NoError(t, a.Initialize(context.Background()))

	err := a.Login(context.Background(), "ada@campus.example", "wrong")

	assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials)
	assert.Equal(t, domainauth.PhaseUnauthenticated, a.State().Phase)
	assert.False(t, vault.HasCredentials())
	assert.Equal(t, []domainaudit.Kind{domainaudit.KindLoginFailed}, audit.kinds())
}

func TestAuthority_Login_PersistFailureLeavesStateUntouched(t *testing.T) {
	vault := mocks.NewMemoryVault()
	vault.SaveCredentialsErr = errors.New("redis down")
	a := newTestAuthority(vault, mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)
	require.NoError(t, a.Initialize(context.Background()))

	err := a.Login(context.Background(), "ada@campus.example", "secret")

	require.Error(t, err)
	assert.Equal(t, domainauth.PhaseUnauthenticated, a.State().Phase)
}

func TestAuthority_Login_DropsStaleImpersonationRecord(t *testing.T) {
	vault := mocks.NewMemoryVault()
	ctx := context.Background()
	a := newTestAuthority(vault, mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)
	require.NoError(t, a.Initialize(ctx))
	require.NoError(t, a.Login(ctx, "ada@campus.example", "secret"))

	_, err := a.StartImpersonation(ctx, domainauth.TargetUser{ID: "s1", Role: domainauth.RoleStudent})
	require.NoError(t, err)
	require.True(t, vault.HasImpersonation())

	// Re-login without an intervening logout: the record persisted under
	// the previous credentials must not survive into the new session.
	require.NoError(t, a.Login(ctx, "ada@campus.example", "secret"))

	assert.Equal(t, domainauth.PhaseAuthenticated, a.State().Phase)
	assert.False(t, vault.HasImpersonation())

	restored := newTestAuthority(vault, mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)
	require.NoError(t, restored.Initialize(ctx))
	assert.Equal(t, domainauth.PhaseAuthenticated, restored.State().Phase)
}

func TestAuthority_Logout_TearsDownDespiteRemoteFailures(t *testing.T) {
	vault := mocks.NewMemoryVault()
	provider := mocks.NewMockAuthProvider()
	provider.LogoutFunc = func(_ context.Context, _ string) error {
		return &domainauth.NetworkError{Op: "logout", Cause: errors.New("gateway unreachable")}
	}
	imp := mocks.NewMockImpersonator()
	imp.EndFunc = func(_ context.Context, _, _ string) error {
		return errors.New("impersonation end failed")
	}
	audit := &recordingAudit{}

	a := newTestAuthority(vault, provider, imp, audit)
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Login(context.Background(), "ada@campus.example", "secret"))
	_, err := a.StartImpersonation(context.Background(), domainauth.TargetUser{ID: "s1", Role: domainauth.RoleStudent})
	require.NoError(t, err)

	a.Logout(context.Background())

	assert.Equal(t, domainauth.PhaseUnauthenticated, a.State().Phase)
	assert.False(t, vault.HasCredentials())
	assert.False(t, vault.HasImpersonation())
	assert.Contains(t, audit.kinds(), domainaudit.KindLogout)
}

func TestAuthority_PermissionChecks(t *testing.T) {
	a := newTestAuthority(mocks.NewMemoryVault(), mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)
	require.NoError(t, a.Initialize(context.Background()))

	// Unauthenticated: everything false except the vacuous all-of-nothing.
	assert.False(t, a.HasPermission(domainauth.PermManageUsers))
	assert.False(t, a.HasAnyPermission(domainauth.PermManageUsers, domainauth.PermViewReports))
	assert.False(t, a.HasAnyPermission())
	assert.True(t, a.HasAllPermissions())

	require.NoError(t, a.Login(context.Background(), "ada@campus.example", "secret"))

	assert.True(t, a.HasPermission(domainauth.PermManageUsers))
	assert.False(t, a.HasPermission(domainauth.PermExportData))
	assert.True(t, a.HasAnyPermission(domainauth.PermExportData, domainauth.PermImpersonateUser))
	assert.True(t, a.HasAllPermissions(domainauth.PermManageUsers, domainauth.PermImpersonateUser))
	assert.False(t, a.HasAllPermissions(domainauth.PermManageUsers, domainauth.PermExportData))
}

func TestAuthority_StartImpersonation_Success(t *testing.T) {
	vault := mocks.NewMemoryVault()
	audit := &recordingAudit{}
	a := newTestAuthority(vault, mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), audit)
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Login(context.Background(), "ada@campus.example", "secret"))

	profile, err := a.StartImpersonation(context.Background(), domainauth.TargetUser{ID: "s1", Role: domainauth.RoleStudent})

	require.NoError(t, err)
	assert.Equal(t, "s1", profile.ID)

	state := a.State()
	assert.Equal(t, domainauth.PhaseImpersonating, state.Phase)
	require.NotNil(t, state.Impersonation)
	assert.Equal(t, "ada@campus.example", state.Impersonation.OriginalAdmin.Email)
	assert.True(t, vault.HasImpersonation())
	assert.Equal(t, "/student/dashboard", a.ImpersonationRedirectPath())
	assert.Contains(t, audit.kinds(), domainaudit.KindImpersonationStart)
}

func TestAuthority_StartImpersonation_RequiresAuthentication(t *testing.T) {
	a := newTestAuthority(mocks.NewMemoryVault(), mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)
	require.NoError(t, a.Initialize(context.Background()))

	_, err := a.StartImpersonation(context.Background(), domainauth.TargetUser{ID: "s1"})
	assert.ErrorIs(t, err, domainauth.ErrNotAuthenticated)
}

func TestAuthority_StartImpersonation_RequiresPermission(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	provider.DefaultAdmin = domainauth.AdminProfile{
		ID:          "admin-2",
		Email:       "bo@campus.example",
		Role:        domainauth.RoleAdmin,
		Permissions: domainauth.NewPermissionSet(domainauth.PermManageUsers),
	}
	vault := mocks.NewMemoryVault()
	imp := mocks.NewMockImpersonator()
	imp.StartFunc = func(_ context.Context, _, _ string) (domainauth.ImpersonatedProfile, error) {
		t.Fatal("platform must not be called when the permission check fails")
		return domainauth.ImpersonatedProfile{}, nil
	}

	a := newTestAuthority(vault, provider, imp, nil)
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Login(context.Background(), "bo@campus.example", "secret"))

	_, err := a.StartImpersonation(context.Background(), domainauth.TargetUser{ID: "s1"})

	assert.ErrorIs(t, err, domainauth.ErrPermissionDenied)
	assert.Equal(t, domainauth.PhaseAuthenticated, a.State().Phase)
	assert.False(t, vault.HasImpersonation())
}

func TestAuthority_StartImpersonation_RejectsNesting(t *testing.T) {
	a := newTestAuthority(mocks.NewMemoryVault(), mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Login(context.Background(), "ada@campus.example", "secret"))

	_, err := a.StartImpersonation(context.Background(), domainauth.TargetUser{ID: "s1", Role: domainauth.RoleStudent})
	require.NoError(t, err)

	_, err = a.StartImpersonation(context.Background(), domainauth.TargetUser{ID: "s2", Role: domainauth.RoleStudent})
	assert.ErrorIs(t, err, domainauth.ErrAlreadyImpersonating)

	// The original session is untouched.
	assert.Equal(t, "s1", a.State().Impersonation.ImpersonatedUser.ID)
}

func TestAuthority_StartImpersonation_PersistFailureStaysInvisible(t *testing.T) {
	vault := mocks.NewMemoryVault()
	a := newTestAuthority(vault, mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Login(context.Background(), "ada@campus.example", "secret"))

	vault.SaveImpersonationErr = errors.New("redis down")

	_, err := a.StartImpersonation(context.Background(), domainauth.TargetUser{ID: "s1", Role: domainauth.RoleStudent})

	require.Error(t, err)
	assert.Equal(t, domainauth.PhaseAuthenticated, a.State().Phase)
}

func TestAuthority_EndImpersonation_RestoresAdminView(t *testing.T) {
	vault := mocks.NewMemoryVault()
	audit := &recordingAudit{}
	a := newTestAuthority(vault, mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), audit)
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Login(context.Background(), "ada@campus.example", "secret"))
	_, err := a.StartImpersonation(context.Background(), domainauth.TargetUser{ID: "s1", Role: domainauth.RoleStudent})
	require.NoError(t, err)

	a.EndImpersonation(context.Background())

	state := a.State()
	assert.Equal(t, domainauth.PhaseAuthenticated, state.Phase)
	assert.Equal(t, "ada@campus.example", state.Admin.Email)
	assert.False(t, vault.HasImpersonation())
	assert.True(t, vault.HasCredentials())
	assert.Equal(t, "", a.ImpersonationRedirectPath())
	assert.Contains(t, audit.kinds(), domainaudit.KindImpersonationEnd)
}

func TestAuthority_EndImpersonation_NoopWhenNotImpersonating(t *testing.T) {
	imp := mocks.NewMockImpersonator()
	imp.EndFunc = func(_ context.Context, _, _ string) error {
		t.Fatal("server teardown must not run without an active record")
		return nil
	}
	a := newTestAuthority(mocks.NewMemoryVault(), mocks.NewMockAuthProvider(), imp, nil)
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Login(context.Background(), "ada@campus.example", "secret"))

	a.EndImpersonation(context.Background())
	a.EndImpersonation(context.Background())

	assert.Equal(t, domainauth.PhaseAuthenticated, a.State().Phase)
}

func TestAuthority_EndImpersonation_ClearsDespiteServerFailure(t *testing.T) {
	vault := mocks.NewMemoryVault()
	imp := mocks.NewMockImpersonator()
	imp.EndFunc = func(_ context.Context, _, _ string) error {
		return &domainauth.NetworkError{Op: "end impersonation", Cause: errors.New("503")}
	}
	a := newTestAuthority(vault, mocks.NewMockAuthProvider(), imp, nil)
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Login(context.Background(), "ada@campus.example", "secret"))

	_, err := a.StartImpersonation(context.Background(), domainauth.TargetUser{ID: "s1", Role: domainauth.RoleStudent})
	require.NoError(t, err)

	a.EndImpersonation(context.Background())

	assert.Equal(t, domainauth.PhaseAuthenticated, a.State().Phase)
	assert.False(t, vault.HasImpersonation())
}

func TestAuthority_AuditFailuresNeverSurface(t *testing.T) {
	audit := &recordingAudit{err: errors.New("db down")}
	a := newTestAuthority(mocks.NewMemoryVault(), mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), audit)
	require.NoError(t, a.Initialize(context.Background()))

	assert.NoError(t, a.Login(context.Background(), "ada@campus.example", "secret"))
}

func TestAuthority_SubscriberSeesEveryTransition(t *testing.T) {
	a := newTestAuthority(mocks.NewMemoryVault(), mocks.NewMockAuthProvider(), mocks.NewMockImpersonator(), nil)

	var phases []domainauth.SessionPhase
	a.Subscribe(func(s domainauth.SessionState) { phases = append(phases, s.Phase) })

	ctx := context.Background()
	require.NoError(t, a.Initialize(ctx))
	require.NoError(t, a.Login(ctx, "ada@campus.example", "secret"))
	_, err := a.StartImpersonation(ctx, domainauth.TargetUser{ID: "s1", Role: domainauth.RoleStudent})
	require.NoError(t, err)
	a.EndImpersonation(ctx)
	a.Logout(ctx)

	assert.Equal(t, []domainauth.SessionPhase{
		domainauth.PhaseUnauthenticated,
		domainauth.PhaseAuthenticated,
		domainauth.PhaseImpersonating,
		domainauth.PhaseAuthenticated,
		domainauth.PhaseUnauthenticated,
	}, phases)
}
