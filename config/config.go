package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Identity provider and session configuration
//   - http.go: HTTP server configuration
//   - jhmh.go: Downstream JHMH API configuration
//   - redis.go: Session denylist store configuration
type AppConfig struct {
	// IsDev enables debug logging and lets the session cookie follow the
	// request scheme instead of forcing Secure. Set DEV=true or
	// NODE_ENV=development.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Auth groups identity provider and session policy configuration.
	Auth AuthConfig

	// HTTP server configuration.
	HTTP HTTPConfig

	// JHMH is the downstream data API the portal fronts.
	JHMH JHMHConfig `envPrefix:"JHMH_"`

	// Redis backs the session denylist.
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Metrics controls the /metrics endpoint.
	Metrics MetricsConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.JHMH.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// MetricsConfig controls prometheus metrics exposure.
type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}
