package auth

// Package auth contains domain-level types for the admin session, permission,
// and impersonation model. It is pure and free of framework/adapter concerns.

import "time"

// Role represents a platform role.
// Keep string form for easy persistence and cookies.
// RoleAdmin is the only role trusted to operate the console; the lowercase
// roles are the impersonable platform populations.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleStudent  Role = "student"
	RoleFaculty  Role = "faculty"
	RoleIndustry Role = "industry"
)

// Impersonable reports whether the role is a platform user role an
// administrator may assume.
func (r Role) Impersonable() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleIndustry:
		return true
	default:
		return false
	}
}

// AdminProfile is the authenticated administrator's identity record.
// It is replaced wholesale on login and cleared on logout; it is never
// mutated field-by-field.
type AdminProfile struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
}

// IsAdmin reports whether the profile's role marker allows it to be trusted
// as an administrator. Anything other than RoleAdmin is a foreign or
// corrupted record from the console's point of view.
func (p AdminProfile) IsAdmin() bool { return p.Role == RoleAdmin }

// TargetUser is a platform user eligible to be impersonated, as listed by
// the user directory.
type TargetUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// ImpersonatedProfile is the identity returned by the platform when an
// impersonation session is opened. RoleFields carries the role-specific
// attributes (enrollment number, department, company, ...) the platform
// attaches to the user; the console treats them as opaque.
type ImpersonatedProfile struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Role       Role           `json:"role"`
	RoleFields map[string]any `json:"role_fields,omitempty"`
}

// ImpersonationRecord represents "administrator X is currently viewing the
// platform as user Y". OriginalAdmin is kept for restoration when the
// impersonation ends; StartedAt is the server-side start timestamp.
type ImpersonationRecord struct {
	OriginalAdmin    AdminProfile        `json:"original_admin"`
	ImpersonatedUser ImpersonatedProfile `json:"impersonated_user"`
	StartedAt        time.Time           `json:"started_at"`
}
