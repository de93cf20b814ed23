package platformapi

import (
	"encoding/json"
	"fmt"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
)

// RoleFieldExtractor pulls role-specific attributes out of raw platform user
// payloads using per-role JMESPath expressions. The platform attaches
// different fields to each population (students carry enrollment data,
// faculty carry departments, industry users carry company records); the
// console stores whatever the configured expressions select.
type RoleFieldExtractor struct {
	exprs map[domainauth.Role]map[string]jmespath.JMESPath
}

// DefaultRoleFieldExprs are the expressions for the stock platform schema.
var DefaultRoleFieldExprs = map[domainauth.Role]map[string]string{
	domainauth.RoleStudent: {
		"enrollment_no": "student.enrollment_no",
		"program":       "student.program",
		"batch_year":    "student.batch_year",
	},
	domainauth.RoleFaculty: {
		"department":  "faculty.department",
		"designation": "faculty.designation",
	},
	domainauth.RoleIndustry: {
		"company":  "industry.company_name",
		"industry": "industry.sector",
	},
}

// NewRoleFieldExtractor compiles the given expressions, falling back to
// DefaultRoleFieldExprs when exprs is nil. Invalid expressions fail
// construction rather than every extraction.
func NewRoleFieldExtractor(exprs map[domainauth.Role]map[string]string) (*RoleFieldExtractor, error) {
	if exprs == nil {
		exprs = DefaultRoleFieldExprs
	}
	compiled := make(map[domainauth.Role]map[string]jmespath.JMESPath, len(exprs))
	for role, fields := range exprs {
		compiledFields := make(map[string]jmespath.JMESPath, len(fields))
		for name, expr := range fields {
			jp, err := jmespath.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile role field %s/%s: %w", role, name, err)
			}
			compiledFields[name] = jp
		}
		compiled[role] = compiledFields
	}
	return &RoleFieldExtractor{exprs: compiled}, nil
}

// Extract evaluates the configured expressions for role against the raw
// JSON payload. Fields whose expression selects nothing are omitted; an
// unknown role yields nil with no error.
func (e *RoleFieldExtractor) Extract(role domainauth.Role, payload json.RawMessage) (map[string]any, error) {
	fields, ok := e.exprs[role]
	if !ok || len(fields) == 0 {
		return nil, nil
	}

	var data any
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	out := make(map[string]any, len(fields))
	for name, jp := range fields {
		val, err := jp.Search(data)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", name, err)
		}
		if val != nil {
			out[name] = val
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
