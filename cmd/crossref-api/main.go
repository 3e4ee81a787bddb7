// Package main provides the cross-reference API server entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/spherical-ai/spherical/libs/crossref-engine/cmd/crossref-api/middleware"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/api"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/monitoring"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("addr", cfg.Addr()).
		Str("catalog", cfg.Catalog.Source).
		Str("cache", cfg.Cache.Driver).
		Bool("auth", cfg.Auth.Enabled).
		Msg("Starting cross-reference API")

	rt, err := api.NewRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	stats := rt.Engine.Index().Stats()
	logger.Info().
		Str("source", rt.Source.Describe()).
		Int("competitors", stats.Competitors).
		Int("legacy", stats.Legacy).
		Int("manufacturers", stats.Manufacturers).
		Msg("Catalog loaded")

	cacheClient, publisher, err := api.NewCacheClient(cfg.Cache)
	if err != nil {
		return err
	}
	defer cacheClient.Close()

	responseCache := crossref.NewResponseCache(rt.Engine, cacheClient, logger, api.ResponseCacheConfigFrom(cfg.Cache))

	var auditor *monitoring.SearchAuditor
	if cfg.Audit.Enabled {
		if cfg.Audit.Channel == "" {
			publisher = nil
		}
		auditor = monitoring.NewSearchAuditor(logger, publisher, cfg.Audit.Channel)
	}

	if cfg.Catalog.ReloadInterval > 0 {
		drift := monitoring.NewDriftRunner(rt.Engine, rt.Source.Load, auditor, logger,
			monitoring.DriftConfig{CheckInterval: cfg.Catalog.ReloadInterval}, rt.DatasetHash)
		go drift.Start(ctx)
	}

	service := api.NewService(responseCache, auditor, logger, api.LimitsFrom(cfg.Search))

	appCfg := &AppConfig{
		RequestTimeout: cfg.Server.WriteTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		AccessLog:      cfg.IsDevelopment(),
		AuthConfig: middleware.AuthConfig{
			Enabled: cfg.Auth.Enabled,
			APIKeys: cfg.Auth.APIKeys,
		},
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      NewRouter(logger, appCfg, service),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
	return nil
}
