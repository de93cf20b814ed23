package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionSet_Has(t *testing.T) {
	set := NewPermissionSet(PermManageUsers, PermViewReports)

	assert.True(t, set.Has(PermManageUsers))
	assert.True(t, set.Has(PermViewReports))
	assert.False(t, set.Has(PermImpersonateUser))
}

func TestPermissionSet_Has_NilSet(t *testing.T) {
	var set PermissionSet

	assert.False(t, set.Has(PermManageUsers))
	assert.False(t, set.HasAny(PermManageUsers, PermViewReports))
	assert.True(t, set.HasAll())
}

func TestPermissionSet_HasAny(t *testing.T) {
	set := NewPermissionSet(PermManageUsers)

	assert.True(t, set.HasAny(PermImpersonateUser, PermManageUsers))
	assert.False(t, set.HasAny(PermImpersonateUser, PermViewAuditLogs))
}

func TestPermissionSet_HasAny_Empty(t *testing.T) {
	set := NewPermissionSet(PermManageUsers)

	// "Any of nothing" grants nothing.
	assert.False(t, set.HasAny())
}

func TestPermissionSet_HasAll(t *testing.T) {
	set := NewPermissionSet(PermManageUsers, PermViewReports, PermExportData)

	assert.True(t, set.HasAll(PermManageUsers, PermExportData))
	assert.False(t, set.HasAll(PermManageUsers, PermImpersonateUser))
}

func TestPermissionSet_HasAll_Empty(t *testing.T) {
	set := NewPermissionSet()

	// Vacuous truth: every element of the empty list is present.
	assert.True(t, set.HasAll())
}

func TestPermissionSet_Names_Sorted(t *testing.T) {
	set := NewPermissionSet(PermViewReports, PermExportData, PermManageUsers)

	assert.Equal(t, []Permission{PermExportData, PermManageUsers, PermViewReports}, set.Names())
}

func TestPermissionSet_JSONRoundTrip(t *testing.T) {
	set := NewPermissionSet(PermManageUsers, PermImpersonateUser)

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `["IMPERSONATE_USER","MANAGE_USERS"]`, string(data))

	var decoded PermissionSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, set, decoded)
}

func TestPermissionSet_UnmarshalRejectsNonArray(t *testing.T) {
	var decoded PermissionSet
	err := json.Unmarshal([]byte(`{"MANAGE_USERS": true}`), &decoded)
	assert.Error(t, err)
}
