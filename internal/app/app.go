// Package app wires configuration, stores and services into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/electrocyb/backend/config"
	httpDelivery "github.com/electrocyb/backend/internal/delivery/http"
	"github.com/electrocyb/backend/internal/domain"
	"github.com/electrocyb/backend/internal/infrastructure/cache"
	"github.com/electrocyb/backend/internal/infrastructure/catalogapi"
	"github.com/electrocyb/backend/internal/infrastructure/memory"
	"github.com/electrocyb/backend/internal/infrastructure/postgres"
	"github.com/electrocyb/backend/internal/observability"
	"github.com/electrocyb/backend/internal/usecase"
)

// App owns the HTTP server and every resource it has to release on shutdown
type App struct {
	cfg        *config.Config
	logger     zerolog.Logger
	httpServer *http.Server
	closers    []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// NewApp builds the dependency graph described by cfg
func NewApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	catalog, closeCatalog, err := OpenCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, namedCloser{"catalog", closeCatalog})

	productCache, closeCache, err := OpenCache(ctx, cfg.Cache, logger)
	if err != nil {
		a.closeAll()
		return nil, err
	}
	a.closers = append(a.closers, namedCloser{"cache", closeCache})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	advice := usecase.NewAdviceService(catalog, nil, AdviceServiceConfig(cfg.Advice), metrics, logger)
	products := usecase.NewProductService(catalog, productCache, usecase.ProductServiceConfig{CacheTTL: cfg.Cache.TTL}, logger)

	handler := httpDelivery.NewHandler(advice, products, logger)
	router := httpDelivery.SetupRouter(cfg, handler, httpDelivery.RouterOptions{
		Logger:   logger,
		Metrics:  metrics,
		Gatherer: reg,
	})

	a.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

// Run starts the HTTP server and blocks until ctx is canceled or the server fails
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.httpServer.Addr).Msg("starting HTTP server")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		a.closeAll()
		return err
	}

	return a.Shutdown()
}

// Shutdown drains in-flight requests and releases stores and caches
func (a *App) Shutdown() error {
	a.logger.Info().Msg("shutting down application")

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var shutdownErr error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http server shutdown error")
		shutdownErr = err
	}

	a.closeAll()
	a.logger.Info().Msg("application shutdown complete")
	return shutdownErr
}

// closeAll releases resources in reverse order of acquisition
func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Error().Err(err).Str("resource", c.name).Msg("close error")
		}
	}
	a.closers = nil
}

// OpenCatalog connects the product store selected by cfg.Catalog.Source.
// The returned func releases it.
func OpenCatalog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (domain.ProductRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Catalog.Source {
	case config.CatalogPostgres:
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:             cfg.Database.DSN(),
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.ApplySchema {
			if err := postgres.EnsureSchema(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			logger.Info().Msg("database schema applied")
		}
		logger.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Name).Msg("connected to PostgreSQL")
		return postgres.NewProductRepository(pool), func() error { pool.Close(); return nil }, nil

	case config.CatalogMemory:
		products, err := memory.LoadSeedFile(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("seed_file", cfg.Catalog.SeedFile).Int("products", len(products)).Msg("in-memory catalog loaded")
		return memory.NewStore(products...), noop, nil

	case config.CatalogHTTP:
		client := catalogapi.NewClient(catalogapi.Config{
			BaseURL:           cfg.Catalog.BaseURL,
			Timeout:           cfg.Catalog.Timeout,
			RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
			SnapshotTTL:       cfg.Catalog.SnapshotTTL,
		}, logger)
		logger.Info().Str("base_url", cfg.Catalog.BaseURL).Msg("using legacy catalog API")
		return client, noop, nil
	}

	return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
}

// OpenCache creates the cache selected by cfg.Type
func OpenCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (domain.CacheRepository, func() error, error) {
	if cfg.Type == "redis" {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("connected to Redis")
		redisCache := cache.NewRedisCache(client, cfg.KeyPrefix)
		return redisCache, redisCache.Close, nil
	}

	memoryCache := cache.NewMemoryCache(time.Minute)
	return memoryCache, memoryCache.Close, nil
}

// AdviceServiceConfig maps the advice settings onto the matching engine
func AdviceServiceConfig(cfg config.AdviceConfig) usecase.AdviceServiceConfig {
	return usecase.AdviceServiceConfig{
		Match: usecase.MatchConfig{
			AbsoluteFloor: cfg.AbsoluteFloor,
			StrongRatio:   cfg.StrongRatio,
			MaxResults:    cfg.MaxResults,
		},
		Retriever: usecase.RetrieverConfig{
			NameMatchLimit:    cfg.NameMatchLimit,
			CatalogLimit:      cfg.CatalogLimit,
			NarrowSearchLimit: cfg.NarrowSearchLimit,
			WideSearchLimit:   cfg.WideSearchLimit,
			MinPoolSize:       cfg.MinPoolSize,
		},
		EnableDebugLogging: cfg.Debug,
	}
}
