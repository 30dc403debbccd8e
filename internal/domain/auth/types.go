package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

// Role represents an application's authorization role.
// Roles arrive as provider custom claims; keep string form for easy transport.
type Role string

const (
	RoleAdmin Role = "admin"
)

// Identity represents the authenticated principal as decoded from a verified
// bearer credential. Adapters map provider-specific claims into this shape.
type Identity struct {
	SubjectID     string
	Email         string
	DisplayName   string
	PictureURL    string
	EmailVerified bool

	// CustomClaims is the provider-attached claim bag. Populated by a GetUser
	// lookup, not by token verification alone.
	CustomClaims map[string]any

	// Roles and Permissions are extracted from CustomClaims by the claims
	// mapper. Empty until claims have been resolved.
	Roles       []string
	Permissions []string
}

// HasRole reports whether the identity carries the given role.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the identity carries the given permission.
func (i Identity) HasPermission(perm string) bool {
	for _, p := range i.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.HasRole(string(RoleAdmin)) }

// UserRecord is the provider-held user record returned by the admin API.
// It is owned by the identity provider; this system only reads it and,
// exceptionally, issues a delete.
type UserRecord struct {
	SubjectID     string         `json:"uid"`
	Email         string         `json:"email"`
	DisplayName   string         `json:"displayName"`
	PictureURL    string         `json:"photoURL"`
	EmailVerified bool           `json:"emailVerified"`
	CustomClaims  map[string]any `json:"customClaims"`
}
