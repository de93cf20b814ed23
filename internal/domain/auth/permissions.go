package auth

import (
	"encoding/json"
	"sort"
)

// Permission is a flat string capability name checked by membership in a
// profile's permission set. The platform defines the vocabulary; the console
// only tests membership.
type Permission = string

const (
	PermManageUsers     Permission = "MANAGE_USERS"
	PermManageRoles     Permission = "MANAGE_ROLES"
	PermImpersonateUser Permission = "IMPERSONATE_USER"
	PermViewReports     Permission = "VIEW_REPORTS"
	PermViewAuditLogs   Permission = "VIEW_AUDIT_LOGS"
	PermExportData      Permission = "EXPORT_DATA"
)

// PermissionSet is an unordered set of permission names with membership-only
// semantics. The zero value is usable and empty.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given names, dropping duplicates.
func NewPermissionSet(names ...Permission) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Has reports whether the set contains name.
func (s PermissionSet) Has(name Permission) bool {
	_, ok := s[name]
	return ok
}

// HasAny reports whether the set contains at least one of names.
// An empty names list is vacuously false: "any of nothing" grants nothing.
func (s PermissionSet) HasAny(names ...Permission) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// HasAll reports whether the set contains every one of names.
// An empty names list is vacuously true.
func (s PermissionSet) HasAll(names ...Permission) bool {
	for _, n := range names {
		if !s.Has(n) {
			return false
		}
	}
	return true
}

// Names returns the permissions in sorted order for stable serialization
// and display.
func (s PermissionSet) Names() []Permission {
	names := make([]Permission, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON serializes the set as a sorted JSON array of names, matching
// the platform API's wire shape.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON accepts a JSON array of names.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var names []Permission
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewPermissionSet(names...)
	return nil
}
