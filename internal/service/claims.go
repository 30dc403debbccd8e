package service

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/jhmh/portal-api/internal/domain/auth"
)

const (
	defaultRolesPath       = "roles"
	defaultPermissionsPath = "permissions"
)

// ClaimsMapper extracts roles and permissions from the provider's custom
// claims using configurable JMESPath expressions, because identity providers
// nest these claims differently.
type ClaimsMapper struct {
	rolesExpr       string
	permissionsExpr string
}

// NewClaimsMapper builds a mapper from the given JMESPath expressions.
// Empty expressions fall back to the defaults ("roles" / "permissions").
func NewClaimsMapper(rolesPath, permissionsPath string) (*ClaimsMapper, error) {
	rolesPath = strings.TrimSpace(rolesPath)
	if rolesPath == "" {
		rolesPath = defaultRolesPath
	}
	permissionsPath = strings.TrimSpace(permissionsPath)
	if permissionsPath == "" {
		permissionsPath = defaultPermissionsPath
	}

	if _, err := jmespath.Compile(rolesPath); err != nil {
		return nil, fmt.Errorf("compile roles path %q: %w", rolesPath, err)
	}
	if _, err := jmespath.Compile(permissionsPath); err != nil {
		return nil, fmt.Errorf("compile permissions path %q: %w", permissionsPath, err)
	}

	return &ClaimsMapper{rolesExpr: rolesPath, permissionsExpr: permissionsPath}, nil
}

// Apply attaches the claim bag to the identity and derives Roles and
// Permissions from it. A nil or empty claim bag yields empty sets.
func (m *ClaimsMapper) Apply(ident *domainauth.Identity, claims map[string]any) {
	ident.CustomClaims = claims
	ident.Roles = m.extract(m.rolesExpr, claims)
	ident.Permissions = m.extract(m.permissionsExpr, claims)
}

func (m *ClaimsMapper) extract(expr string, claims map[string]any) []string {
	if len(claims) == 0 {
		return nil
	}
	result, err := jmespath.Search(expr, claims)
	if err != nil {
		return nil
	}
	return toStringSlice(result)
}

// toStringSlice converts a JMESPath result into a string slice. Single
// strings become one-element slices; non-string elements are skipped.
func toStringSlice(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
