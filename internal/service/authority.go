package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainaudit "github.com/campusbridge/admin-console/internal/domain/audit"
	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	"github.com/campusbridge/admin-console/internal/ports"
)

// AuthorityOptions groups dependencies for Authority.
type AuthorityOptions struct {
	Vault        ports.SessionVault
	Auth         ports.AuthProvider
	Impersonator ports.Impersonator
	Audit        ports.AuditRecorder
	Logger       *slog.Logger
	// Clock overrides time.Now, mainly for tests.
	Clock func() time.Time
}

// Authority is the sole owner of one console session's authentication and
// impersonation state. It orchestrates the platform auth service and the
// session vault; it is the only component that writes to the vault.
//
// Operations never navigate. State changes are published to subscribers and
// the HTTP layer decides where to send the browser, keeping the authority
// testable in isolation from any routing.
type Authority struct {
	vault        ports.SessionVault
	auth         ports.AuthProvider
	impersonator ports.Impersonator
	audit        ports.AuditRecorder
	logger       *slog.Logger
	clock        func() time.Time

	mu            sync.Mutex
	loading       bool
	token         string
	admin         *domainauth.AdminProfile
	impersonation *domainauth.ImpersonationRecord
	subscribers   []func(domainauth.SessionState)
}

// NewAuthority constructs an Authority in the Loading phase. Initialize must
// be called before the state is meaningful.
func NewAuthority(opts AuthorityOptions) *Authority {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Authority{
		vault:        opts.Vault,
		auth:         opts.Auth,
		impersonator: opts.Impersonator,
		audit:        opts.Audit,
		logger:       logger,
		clock:        clock,
		loading:      true,
	}
}

// State returns the derived session state. The tagged union is recomputed
// from the live records on every call; it is never stored, so it cannot
// drift from the presence of actual credentials.
func (a *Authority) State() domainauth.SessionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

func (a *Authority) stateLocked() domainauth.SessionState {
	return domainauth.DeriveState(a.loading, a.token, a.admin, a.impersonation)
}

// Subscribe registers fn to be called with a state snapshot after every
// state change. Subscribers must not call back into the authority.
func (a *Authority) Subscribe(fn func(domainauth.SessionState)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers = append(a.subscribers, fn)
}

// notifyLocked snapshots state and subscribers under the lock and returns a
// closure that delivers the notification after the lock is released.
func (a *Authority) notifyLocked() func() {
	state := a.stateLocked()
	subs := make([]func(domainauth.SessionState), len(a.subscribers))
	copy(subs, a.subscribers)
	return func() {
		for _, fn := range subs {
			fn(state)
		}
	}
}

// Initialize restores a persisted session, once, at console-session start.
//
// A missing credential pair short-circuits to Unauthenticated with no
// network call. Otherwise the stored token is validated with the platform:
// an explicit invalid verdict tears down everything; a transport failure
// invokes the fallback trust policy, where a cached profile whose role
// marker is ADMIN is adopted provisionally and anything else is discarded.
// In every branch the loading flag is cleared exactly once.
func (a *Authority) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer func() {
		a.loading = false
		notify := a.notifyLocked()
		a.mu.Unlock()
		notify()
	}()

	creds, ok, err := a.vault.LoadCredentials(ctx)
	if err != nil {
		return fmt.Errorf("load persisted credentials: %w", err)
	}
	if !ok {
		return nil
	}

	valid, err := a.auth.ValidateSession(ctx, creds.Token)
	switch {
	case err == nil && valid:
		a.token = creds.Token
		a.admin = &creds.Admin
		a.restoreImpersonationLocked(ctx)
		return nil

	case err == nil: // explicit invalid verdict
		if clearErr := a.vault.Clear(ctx); clearErr != nil {
			a.logger.WarnContext(ctx, "failed to clear vault after invalid session", "error", clearErr)
		}
		return nil

	default: // verdict unknown: transport failure
		if !creds.Admin.IsAdmin() {
			a.logger.WarnContext(ctx, "discarding non-admin cached profile under validation outage",
				"role", creds.Admin.Role)
			if clearErr := a.vault.Clear(ctx); clearErr != nil {
				a.logger.WarnContext(ctx, "failed to clear vault", "error", clearErr)
			}
			return nil
		}

		// Fallback trust: a transient outage must not lock out an admin
		// who already holds a locally cached admin profile.
		a.token = creds.Token
		a.admin = &creds.Admin

		// An unconfirmed impersonation record is not adopted offline; it
		// is dropped so the store matches the restored state.
		if delErr := a.vault.DeleteImpersonation(ctx); delErr != nil {
			a.logger.WarnContext(ctx, "failed to drop impersonation record during fallback restore", "error", delErr)
		}

		a.recordAudit(ctx, domainaudit.Event{
			Kind:       domainaudit.KindFallbackTrust,
			ActorID:    creds.Admin.ID,
			ActorEmail: creds.Admin.Email,
			Details:    jsonDetails(map[string]any{"validation_error": err.Error()}),
		})
		return nil
	}
}

// restoreImpersonationLocked adopts a persisted impersonation record after a
// confirmed validation, enforcing the permission invariant: a record may
// only exist under an admin holding IMPERSONATE_USER.
func (a *Authority) restoreImpersonationLocked(ctx context.Context) {
	rec, err := a.vault.LoadImpersonation(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "failed to load persisted impersonation record", "error", err)
		return
	}
	if rec == nil {
		return
	}
	if !a.admin.Permissions.Has(domainauth.PermImpersonateUser) {
		a.logger.WarnContext(ctx, "dropping impersonation record: admin lacks permission",
			"admin_id", a.admin.ID)
		if delErr := a.vault.DeleteImpersonation(ctx); delErr != nil {
			a.logger.WarnContext(ctx, "failed to delete impersonation record", "error", delErr)
		}
		return
	}
	a.impersonation = rec
}

// Login exchanges credentials with the platform and adopts the returned
// token/profile pair. The pair is written to the vault before it becomes
// visible in live state, so a crash between the network response and the
// state update still leaves durable state consistent. On any failure live
// state is untouched.
func (a *Authority) Login(ctx context.Context, email, secret string) error {
	creds, err := a.auth.Login(ctx, email, secret)
	if err != nil {
		a.recordAudit(ctx, domainaudit.Event{
			Kind:       domainaudit.KindLoginFailed,
			ActorID:    email,
			ActorEmail: email,
		})
		return err
	}

	a.mu.Lock()
	if saveErr := a.vault.SaveCredentials(ctx, creds); saveErr != nil {
		a.mu.Unlock()
		return fmt.Errorf("persist credentials: %w", saveErr)
	}
	// A record persisted under the previous credentials must not survive
	// into the new session, or the next restore would resurrect it.
	if delErr := a.vault.DeleteImpersonation(ctx); delErr != nil {
		a.logger.WarnContext(ctx, "failed to drop stale impersonation record on login", "error", delErr)
	}
	a.token = creds.Token
	a.admin = &creds.Admin
	a.impersonation = nil
	notify := a.notifyLocked()
	a.mu.Unlock()
	notify()

	a.recordAudit(ctx, domainaudit.Event{
		Kind:       domainaudit.KindLogin,
		ActorID:    creds.Admin.ID,
		ActorEmail: creds.Admin.Email,
	})
	return nil
}

// Logout tears the session down. Server-side notifications (ending an
// active impersonation, the logout call itself) are best-effort: their
// errors are logged and deliberately discarded, because blocking a user
// from logging out over a failed remote call is a worse outcome than a
// lingering server-side session. Local teardown is unconditional.
func (a *Authority) Logout(ctx context.Context) {
	a.mu.Lock()
	admin := a.admin
	token := a.token
	rec := a.impersonation
	a.mu.Unlock()

	if rec != nil && admin != nil {
		if err := a.impersonator.End(ctx, rec.ImpersonatedUser.ID, admin.Email); err != nil {
			a.logger.WarnContext(ctx, "impersonation teardown failed during logout", "error", err)
		}
	}
	if token != "" {
		if err := a.auth.Logout(ctx, token); err != nil {
			a.logger.WarnContext(ctx, "platform logout failed", "error", err)
		}
	}

	a.mu.Lock()
	if err := a.vault.Clear(ctx); err != nil {
		a.logger.WarnContext(ctx, "failed to clear session vault during logout", "error", err)
	}
	a.token = ""
	a.admin = nil
	a.impersonation = nil
	notify := a.notifyLocked()
	a.mu.Unlock()
	notify()

	if admin != nil {
		a.recordAudit(ctx, domainaudit.Event{
			Kind:       domainaudit.KindLogout,
			ActorID:    admin.ID,
			ActorEmail: admin.Email,
		})
	}
}

// HasPermission reports whether the live profile holds name. Always false
// when unauthenticated; never an error.
func (a *Authority) HasPermission(name domainauth.Permission) bool {
	return a.State().Permissions().Has(name)
}

// HasAnyPermission reports whether the live profile holds at least one of
// names. Empty input is false.
func (a *Authority) HasAnyPermission(names ...domainauth.Permission) bool {
	return a.State().Permissions().HasAny(names...)
}

// HasAllPermissions reports whether the live profile holds every one of
// names. Empty input is vacuously true, even when unauthenticated: the nil
// set contains every element of the empty list.
func (a *Authority) HasAllPermissions(names ...domainauth.Permission) bool {
	return a.State().Permissions().HasAll(names...)
}

// StartImpersonation opens an impersonation session for the given target.
// Preconditions are checked locally before any network call: an
// authenticated admin, the IMPERSONATE_USER permission, and no active
// impersonation (nested impersonation is rejected outright). On success the
// record is persisted before it becomes visible. The caller is responsible
// for navigating to the impersonated role's landing page.
func (a *Authority) StartImpersonation(ctx context.Context, target domainauth.TargetUser) (domainauth.ImpersonatedProfile, error) {
	a.mu.Lock()
	if a.admin == nil || a.token == "" {
		a.mu.Unlock()
		return domainauth.ImpersonatedProfile{}, domainauth.ErrNotAuthenticated
	}
	if !a.admin.Permissions.Has(domainauth.PermImpersonateUser) {
		a.mu.Unlock()
		return domainauth.ImpersonatedProfile{}, domainauth.ErrPermissionDenied
	}
	if a.impersonation != nil {
		a.mu.Unlock()
		return domainauth.ImpersonatedProfile{}, domainauth.ErrAlreadyImpersonating
	}
	admin := *a.admin
	a.mu.Unlock()

	profile, err := a.impersonator.Start(ctx, target.ID, admin.Email)
	if err != nil {
		return domainauth.ImpersonatedProfile{}, err
	}

	rec := domainauth.ImpersonationRecord{
		OriginalAdmin:    admin,
		ImpersonatedUser: profile,
		StartedAt:        a.clock().UTC(),
	}

	a.mu.Lock()
	if saveErr := a.vault.SaveImpersonation(ctx, rec); saveErr != nil {
		a.mu.Unlock()
		return domainauth.ImpersonatedProfile{}, fmt.Errorf("persist impersonation record: %w", saveErr)
	}
	a.impersonation = &rec
	notify := a.notifyLocked()
	a.mu.Unlock()
	notify()

	a.recordAudit(ctx, domainaudit.Event{
		Kind:       domainaudit.KindImpersonationStart,
		ActorID:    admin.ID,
		ActorEmail: admin.Email,
		TargetID:   profile.ID,
		Details:    jsonDetails(map[string]any{"target_role": profile.Role}),
	})
	return profile, nil
}

// EndImpersonation closes the active impersonation, restoring the original
// admin view. With no active record it succeeds trivially. The server-side
// teardown is best-effort: from the caller's point of view ending
// impersonation never fails, so the local record is always cleared.
func (a *Authority) EndImpersonation(ctx context.Context) {
	a.mu.Lock()
	rec := a.impersonation
	admin := a.admin
	a.mu.Unlock()

	if rec == nil {
		return
	}

	actingEmail := rec.OriginalAdmin.Email
	if admin != nil {
		actingEmail = admin.Email
	}
	if err := a.impersonator.End(ctx, rec.ImpersonatedUser.ID, actingEmail); err != nil {
		a.logger.WarnContext(ctx, "server-side impersonation end failed", "error", err,
			"target_id", rec.ImpersonatedUser.ID)
	}

	a.mu.Lock()
	if err := a.vault.DeleteImpersonation(ctx); err != nil {
		a.logger.WarnContext(ctx, "failed to delete impersonation record", "error", err)
	}
	a.impersonation = nil
	notify := a.notifyLocked()
	a.mu.Unlock()
	notify()

	a.recordAudit(ctx, domainaudit.Event{
		Kind:       domainaudit.KindImpersonationEnd,
		ActorID:    rec.OriginalAdmin.ID,
		ActorEmail: rec.OriginalAdmin.Email,
		TargetID:   rec.ImpersonatedUser.ID,
	})
}

// ImpersonationRedirectPath returns the impersonated role's landing route,
// or "" when not impersonating or the role has no landing page ("" means
// stay put).
func (a *Authority) ImpersonationRedirectPath() string {
	a.mu.Lock()
	rec := a.impersonation
	a.mu.Unlock()

	if rec == nil {
		return ""
	}
	return RoleLandingPath(rec.ImpersonatedUser.Role)
}

// recordAudit writes an audit event, logging and swallowing failures:
// auditing must never fail a session operation.
func (a *Authority) recordAudit(ctx context.Context, event domainaudit.Event) {
	if a.audit == nil {
		return
	}
	if err := a.audit.Record(ctx, event); err != nil {
		a.logger.ErrorContext(ctx, "failed to record audit event", "kind", event.Kind, "error", err)
	}
}

func jsonDetails(v map[string]any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
