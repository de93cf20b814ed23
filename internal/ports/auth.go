package ports

// Package ports defines interfaces (hexagonal ports) for the session
// authority's collaborators. Implementations live in internal/adapters and
// internal/data; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
)

// Credentials is the token/profile pair returned by a successful login.
// The pair is atomic: neither half is ever stored or adopted without the
// other.
type Credentials struct {
	Token string
	Admin domainauth.AdminProfile
}

// AuthProvider talks to the platform's authentication service.
type AuthProvider interface {
	// Login exchanges an email/secret pair for credentials. An explicit
	// rejection surfaces domainauth.ErrInvalidCredentials; transport
	// failures surface as *domainauth.NetworkError.
	Login(ctx context.Context, email, secret string) (Credentials, error)

	// ValidateSession asks the platform whether token is still valid.
	// valid=false with a nil error is an explicit server verdict; a
	// non-nil error means the verdict is unknown (transport failure) and
	// the fallback trust policy applies.
	ValidateSession(ctx context.Context, token string) (valid bool, err error)

	// Logout notifies the platform that the session is over. Best-effort;
	// callers ignore the error beyond logging.
	Logout(ctx context.Context, token string) error
}

// Impersonator opens and closes impersonation sessions on the platform.
type Impersonator interface {
	// Start opens an impersonation session for targetUserID on behalf of
	// actingAdminEmail and returns the impersonated identity.
	Start(ctx context.Context, targetUserID, actingAdminEmail string) (domainauth.ImpersonatedProfile, error)

	// End closes the impersonation session server-side. Best-effort;
	// callers ignore the error beyond logging.
	End(ctx context.Context, targetUserID, actingAdminEmail string) error
}

// SessionVault is the durable store behind the session authority: three
// independent, namespaced records (token, admin profile, impersonation
// record) that survive console restarts. Only the authority writes to it.
type SessionVault interface {
	// SaveCredentials writes the token/profile pair atomically.
	SaveCredentials(ctx context.Context, creds Credentials) error

	// LoadCredentials returns the persisted pair. ok=false means one or
	// both records are absent (a corrupt record counts as absent and is
	// removed by the implementation).
	LoadCredentials(ctx context.Context) (creds Credentials, ok bool, err error)

	// SaveImpersonation writes the impersonation record.
	SaveImpersonation(ctx context.Context, rec domainauth.ImpersonationRecord) error

	// LoadImpersonation returns the persisted impersonation record, or
	// nil when absent or unparseable.
	LoadImpersonation(ctx context.Context) (*domainauth.ImpersonationRecord, error)

	// DeleteImpersonation removes the impersonation record, leaving the
	// credential pair untouched. Deleting an absent record is a no-op.
	DeleteImpersonation(ctx context.Context) error

	// Clear removes all three records.
	Clear(ctx context.Context) error
}
