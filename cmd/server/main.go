package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/electrocyb/backend/config"
	"github.com/electrocyb/backend/internal/app"
	"github.com/electrocyb/backend/internal/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	logger.Info().
		Str("version", "1.0.0").
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("catalog", cfg.Catalog.Source).
		Str("cache", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Bool("rate_limit", cfg.RateLimit.Enabled).
		Msg("starting electrocyb backend")

	logger.Info().
		Int("absolute_floor", cfg.Advice.AbsoluteFloor).
		Float64("strong_ratio", cfg.Advice.StrongRatio).
		Int("max_results", cfg.Advice.MaxResults).
		Bool("debug", cfg.Advice.Debug).
		Msg("matching engine configured")

	// Cancelled on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("application error")
		cancel()
		os.Exit(1)
	}

	logger.Info().Msg("electrocyb backend stopped")
}
