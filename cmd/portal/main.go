package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhmh/portal-api/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.IsDev {
		bootstrap.EnableDebugLogging()
	}

	logger.InfoContext(ctx, "starting portal API",
		"dev_mode", cfg.IsDev,
		"addr", cfg.HTTP.Addr,
		"allowed_domain", cfg.Auth.AllowedDomain,
		"provider_configured", cfg.Auth.ProviderConfigured(),
		"api_configured", cfg.JHMH.Configured(),
		"denylist_configured", cfg.Redis.Configured())

	redisClient, err := bootstrap.ConnectRedis(cfg.Redis, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	registry, authMetrics := bootstrap.BuildMetrics(cfg.Metrics)
	apiClient := bootstrap.BuildAPIClient(cfg.JHMH, authMetrics, logger)

	authSvc := bootstrap.BuildAuthService(ctx, bootstrap.AuthConfig{
		Auth:        cfg.Auth,
		API:         apiClient,
		RedisClient: redisClient,
		Metrics:     authMetrics,
		Logger:      logger,
	})

	server := bootstrap.StartHTTPServer(&bootstrap.HTTPServerConfig{
		Config:   &cfg,
		Auth:     authSvc,
		Backend:  apiClient,
		Registry: registry,
		Logger:   logger,
	})

	// Block until interrupted, then drain in-flight requests.
	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	return bootstrap.ShutdownHTTPServer(bootstrap.ShutdownConfig{
		Context: ctx,
		Server:  server,
		Logger:  logger,
	})
}
