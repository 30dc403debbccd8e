package bootstrap

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhmh/portal-api/config"
	"github.com/jhmh/portal-api/internal/adapters/jhmh"
	"github.com/jhmh/portal-api/internal/metrics"
)

// BuildMetrics creates the prometheus registry and the auth metrics set.
// Returns a nil registry when metrics are disabled.
func BuildMetrics(cfg config.MetricsConfig) (*prometheus.Registry, *metrics.Metrics) {
	if !cfg.Enabled {
		return nil, nil
	}
	registry := prometheus.NewRegistry()
	return registry, metrics.New(registry)
}

// BuildAPIClient creates the JHMH API client. Returns nil when the downstream
// API is not configured; the proxy surface then answers 503.
func BuildAPIClient(cfg config.JHMHConfig, m *metrics.Metrics, logger *slog.Logger) *jhmh.Client {
	if !cfg.Configured() {
		if logger != nil {
			logger.Warn("JHMH API not configured, proxy surface disabled")
		}
		return nil
	}

	client, err := jhmh.New(jhmh.Config{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		HealthPath:     cfg.HealthPath,
		HealthCacheTTL: cfg.HealthCacheTTL,
		HTTPClient:     &http.Client{Timeout: cfg.Timeout},
		Metrics:        m,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("failed to create JHMH API client, proxy surface disabled", "error", err)
		}
		return nil
	}
	return client
}
