package service

import (
	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
)

// Console routes the session layer redirects browsers to. The HTTP layer owns
// all navigation; these constants keep the destinations in one place.
const (
	LoginPath     = "/auth/login"
	ForbiddenPath = "/forbidden"

	// AdminUserListPath is where the console returns after impersonation
	// ends, regardless of which role was being impersonated.
	AdminUserListPath = "/admin/users"
)

// RoleLandingPath maps an impersonable role to its landing route. Unknown or
// non-impersonable roles map to "", meaning stay on the current page.
func RoleLandingPath(role domainauth.Role) string {
	switch role {
	case domainauth.RoleStudent:
		return "/student/dashboard"
	case domainauth.RoleFaculty:
		return "/faculty/dashboard"
	case domainauth.RoleIndustry:
		return "/industry/dashboard"
	default:
		return ""
	}
}
