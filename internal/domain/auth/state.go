package auth

// SessionPhase tags the derived session state.
type SessionPhase string

const (
	// PhaseLoading means the initial persisted-session validation is still
	// in flight; consumers must block, not redirect.
	PhaseLoading SessionPhase = "loading"
	// PhaseUnauthenticated means no valid token/profile pair is present.
	PhaseUnauthenticated SessionPhase = "unauthenticated"
	// PhaseAuthenticated means a token/profile pair is live and no
	// impersonation is active.
	PhaseAuthenticated SessionPhase = "authenticated"
	// PhaseImpersonating means a token/profile pair is live and an
	// impersonation record is active.
	PhaseImpersonating SessionPhase = "impersonating"
)

// SessionState is the derived, never-persisted view of the session. It is
// recomputed from the stored records on every read so a stale "authenticated"
// flag can never drift from the actual presence of credentials.
type SessionState struct {
	Phase         SessionPhase         `json:"phase"`
	Admin         *AdminProfile        `json:"admin,omitempty"`
	Impersonation *ImpersonationRecord `json:"impersonation,omitempty"`
}

// DeriveState computes the tagged session state from the three stored fields
// plus the loading flag. This is the single place the union is computed;
// illegal combinations (profile without token, impersonation without a
// profile) collapse to the nearest legal phase rather than leaking through.
func DeriveState(loading bool, token string, admin *AdminProfile, rec *ImpersonationRecord) SessionState {
	if loading {
		return SessionState{Phase: PhaseLoading}
	}
	if token == "" || admin == nil {
		return SessionState{Phase: PhaseUnauthenticated}
	}
	if rec != nil {
		return SessionState{Phase: PhaseImpersonating, Admin: admin, Impersonation: rec}
	}
	return SessionState{Phase: PhaseAuthenticated, Admin: admin}
}

// Authenticated reports whether a live token/profile pair is present, with
// or without impersonation.
func (s SessionState) Authenticated() bool {
	return s.Phase == PhaseAuthenticated || s.Phase == PhaseImpersonating
}

// Permissions returns the live profile's permission set, or nil when
// unauthenticated. Membership checks on a nil set are all false, which is
// exactly the contract for unauthenticated permission checks.
func (s SessionState) Permissions() PermissionSet {
	if s.Admin == nil {
		return nil
	}
	return s.Admin.Permissions
}
