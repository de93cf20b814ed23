package platformapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
)

func TestRoleFieldExtractor_InvalidExpressionFailsConstruction(t *testing.T) {
	_, err := NewRoleFieldExtractor(map[domainauth.Role]map[string]string{
		domainauth.RoleStudent: {"bad": "]["},
	})
	assert.Error(t, err)
}

func TestRoleFieldExtractor_Defaults(t *testing.T) {
	extractor, err := NewRoleFieldExtractor(nil)
	require.NoError(t, err)

	payload := json.RawMessage(`{
		"id": "u-1",
		"role": "faculty",
		"faculty": {"department": "Physics", "designation": "Professor"}
	}`)

	fields, err := extractor.Extract(domainauth.RoleFaculty, payload)
	require.NoError(t, err)
	assert.Equal(t, "Physics", fields["department"])
	assert.Equal(t, "Professor", fields["designation"])
}

func TestRoleFieldExtractor_UnknownRole(t *testing.T) {
	extractor, err := NewRoleFieldExtractor(nil)
	require.NoError(t, err)

	fields, err := extractor.Extract(domainauth.Role("alumni"), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestRoleFieldExtractor_NoMatchesYieldsNil(t *testing.T) {
	extractor, err := NewRoleFieldExtractor(nil)
	require.NoError(t, err)

	fields, err := extractor.Extract(domainauth.RoleStudent, json.RawMessage(`{"id":"u-1"}`))
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestRoleFieldExtractor_CustomExpressions(t *testing.T) {
	extractor, err := NewRoleFieldExtractor(map[domainauth.Role]map[string]string{
		domainauth.RoleIndustry: {
			"openings": "length(openings)",
			"company":  "profile.company.name",
		},
	})
	require.NoError(t, err)

	payload := json.RawMessage(`{
		"openings": [{"id": 1}, {"id": 2}],
		"profile": {"company": {"name": "Acme Robotics"}}
	}`)

	fields, err := extractor.Extract(domainauth.RoleIndustry, payload)
	require.NoError(t, err)
	assert.Equal(t, "Acme Robotics", fields["company"])
	assert.EqualValues(t, 2, fields["openings"])
}

func TestRoleFieldExtractor_MalformedPayload(t *testing.T) {
	extractor, err := NewRoleFieldExtractor(nil)
	require.NoError(t, err)

	_, err = extractor.Extract(domainauth.RoleStudent, json.RawMessage(`{broken`))
	assert.Error(t, err)
}
