package bootstrap

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/jhmh/portal-api/config"
	"github.com/jhmh/portal-api/internal/adapters/idp"
	"github.com/jhmh/portal-api/internal/adapters/jhmh"
	redisadapter "github.com/jhmh/portal-api/internal/adapters/redis"
	"github.com/jhmh/portal-api/internal/metrics"
	"github.com/jhmh/portal-api/internal/ports"
	"github.com/jhmh/portal-api/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	API         *jhmh.Client
	RedisClient redis.UniversalClient
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// BuildAuthService wires the identity provider, the downstream health check
// and the session denylist into an auth service. When the provider is not
// configured the service is still built with a nil provider; it then reports
// the authentication service unavailable on every operation.
func BuildAuthService(ctx context.Context, cfg AuthConfig) *service.AuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var provider ports.IdentityProvider
	if cfg.Auth.ProviderConfigured() {
		prov, err := idp.New(ctx, idp.Config{
			IssuerURL:         cfg.Auth.Provider.IssuerURL,
			Audience:          cfg.Auth.Provider.Audience,
			AdminBaseURL:      cfg.Auth.Provider.AdminBaseURL,
			AdminTokenURL:     cfg.Auth.Provider.AdminTokenURL,
			AdminClientID:     cfg.Auth.Provider.AdminClientID,
			AdminClientSecret: cfg.Auth.Provider.AdminClientSecret,
		})
		if err != nil {
			logger.Warn("failed to create identity provider, auth degraded",
				"issuer", cfg.Auth.Provider.IssuerURL, "error", err)
		} else {
			provider = prov
		}
	} else {
		logger.Warn("identity provider not configured, auth degraded")
	}

	var denylist ports.Denylist
	if cfg.RedisClient != nil {
		denylist = redisadapter.NewDenylist(cfg.RedisClient)
	}

	claims, err := service.NewClaimsMapper(cfg.Auth.ClaimsRolesPath, cfg.Auth.ClaimsPermissionsPath)
	if err != nil {
		logger.Warn("invalid claims mapping expressions, using defaults", "error", err)
		claims = nil
	}

	var api ports.HealthChecker
	if cfg.API != nil {
		api = cfg.API
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:      provider,
		API:           api,
		Denylist:      denylist,
		Claims:        claims,
		AllowedDomain: cfg.Auth.AllowedDomain,
		DenyTTL:       cfg.Auth.DenyTTL,
		Logger:        logger,
		Metrics:       cfg.Metrics,
	})
}
