package config

import (
	"strings"
	"time"
)

// ProviderConfig contains identity provider configuration. When IssuerURL is
// empty no provider is built and every auth operation reports the
// authentication service unavailable.
type ProviderConfig struct {
	IssuerURL string `env:"ISSUER_URL"`
	Audience  string `env:"AUDIENCE"`

	// Admin REST API used for user lookup and compensating deletes.
	AdminBaseURL      string `env:"ADMIN_BASE_URL"`
	AdminTokenURL     string `env:"ADMIN_TOKEN_URL"`
	AdminClientID     string `env:"ADMIN_CLIENT_ID"`
	AdminClientSecret string `env:"ADMIN_CLIENT_SECRET"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// AllowedDomain is the only email domain admitted at login.
	AllowedDomain string `env:"AUTH_ALLOWED_DOMAIN" envDefault:"jhmh.com"`

	// Provider configuration (OIDC issuer + admin REST API).
	Provider ProviderConfig `envPrefix:"AUTH_PROVIDER_"`

	// SessionMaxAge caps how long browsers keep the session cookie.
	SessionMaxAge time.Duration `env:"AUTH_SESSION_MAX_AGE" envDefault:"168h"`

	// DenyTTL is how long a subject stays on the denylist after a failed
	// login triggers account cleanup.
	DenyTTL time.Duration `env:"AUTH_DENY_TTL" envDefault:"2h"`

	// ClaimsRolesPath and ClaimsPermissionsPath are JMESPath expressions
	// locating roles and permissions inside the provider's custom claims.
	ClaimsRolesPath       string `env:"AUTH_CLAIMS_ROLES_PATH"       envDefault:"roles"`
	ClaimsPermissionsPath string `env:"AUTH_CLAIMS_PERMISSIONS_PATH" envDefault:"permissions"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.AllowedDomain = strings.ToLower(strings.TrimSpace(a.AllowedDomain))
	if a.SessionMaxAge <= 0 {
		a.SessionMaxAge = 168 * time.Hour
	}
	if a.DenyTTL <= 0 {
		a.DenyTTL = 2 * time.Hour
	}
}

// ProviderConfigured reports whether an identity provider can be built.
func (a *AuthConfig) ProviderConfigured() bool {
	return a.Provider.IssuerURL != ""
}
