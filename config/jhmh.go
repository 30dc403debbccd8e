package config

import "time"

// JHMHConfig contains configuration for the downstream JHMH data API.
type JHMHConfig struct {
	// BaseURL is the root of the JHMH API. Required for the proxy surface
	// and the pre-login health check.
	BaseURL string `env:"BASE_URL"`

	// APIKey authenticates the portal to the JHMH API.
	APIKey string `env:"API_KEY"`

	// HealthPath is probed before issuing sessions.
	HealthPath string `env:"HEALTH_PATH" envDefault:"/health"`

	// HealthCacheTTL is how long a successful probe is trusted.
	HealthCacheTTL time.Duration `env:"HEALTH_CACHE_TTL" envDefault:"10s"`

	// Timeout bounds each downstream request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// Sanitize applies guardrails to JHMH API configuration values.
func (j *JHMHConfig) Sanitize() {
	if j.HealthCacheTTL <= 0 {
		j.HealthCacheTTL = 10 * time.Second
	}
	if j.Timeout <= 0 {
		j.Timeout = 15 * time.Second
	}
}

// Configured reports whether the downstream API client can be built.
func (j *JHMHConfig) Configured() bool {
	return j.BaseURL != ""
}
