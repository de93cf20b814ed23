package ports

import (
	"context"

	domainaudit "github.com/campusbridge/admin-console/internal/domain/audit"
	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
)

// UserDirectory looks up platform users eligible for impersonation.
type UserDirectory interface {
	// GetUser returns the platform user with the given ID.
	GetUser(ctx context.Context, id string) (domainauth.TargetUser, error)

	// ListImpersonable returns users whose role admits impersonation,
	// optionally filtered to a single role, newest first.
	ListImpersonable(ctx context.Context, role domainauth.Role, limit int) ([]domainauth.TargetUser, error)
}

// AuditRecorder persists console audit events. Recording failures must
// never fail the calling operation; callers log and move on.
type AuditRecorder interface {
	Record(ctx context.Context, event domainaudit.Event) error
}
