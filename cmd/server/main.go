// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/affinigraph/internal/api"
	"github.com/tomtom215/affinigraph/internal/config"
	"github.com/tomtom215/affinigraph/internal/events"
	"github.com/tomtom215/affinigraph/internal/logging"
	"github.com/tomtom215/affinigraph/internal/supervisor"
	"github.com/tomtom215/affinigraph/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logger.Info().
		Str("addr", cfg.Server.Addr()).
		Str("transport", cfg.Events.Transport).
		Bool("storage", cfg.Storage.Enabled).
		Bool("redis_sink", cfg.Sink.Enabled).
		Msg("Starting Affinigraph with supervisor tree")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := initStore(ctx, cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize interaction store")
	}
	defer func() {
		if st == nil {
			return
		}
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing interaction store")
		}
	}()

	engine, err := initEngine(ctx, cfg, st, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	bus, err := events.New(events.Config{
		Transport:        cfg.Events.Transport,
		NATSURL:          cfg.Events.NATSURL,
		QueueGroup:       cfg.Events.QueueGroup,
		SubscribersCount: cfg.Events.SubscribersCount,
		BufferSize:       cfg.Events.BufferSize,
		AckWaitTimeout:   cfg.Events.AckWaitTimeout,
	}, logging.NewWatermillAdapter(logger.With().Str("component", "events").Logger()))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	resultSink, redisWriter, err := initSink(ctx, cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize Redis sink")
	}
	if redisWriter != nil {
		defer func() {
			if err := redisWriter.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing Redis client")
			}
		}()
	}

	tree, err := supervisor.NewSupervisorTree(
		slog.New(logging.NewSlogHandler(logger.With().Str("component", "supervisor").Logger())),
		supervisor.TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  cfg.Server.ShutdownTimeout,
		},
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddIngestService(services.NewIngestService(engine, bus, cfg.Events.InteractionsTopic, logger))

	tree.AddComputeService(services.NewRecomputeService(engine, bus, services.RecomputeServiceConfig{
		MinInterval: cfg.Recommend.MinRecomputeInterval,
		Topic:       cfg.Events.RecommendationsTopic,
	}, logger))

	if resultSink != nil {
		tree.AddComputeService(services.NewSinkService(engine, resultSink, bus, cfg.Events.RecommendationsTopic, logger))
		logger.Info().Msg("Redis sink service added to supervisor tree")
	}

	mwCfg := &api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		CORSMaxAge:         api.DefaultMiddlewareConfig().CORSMaxAge,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	}
	if cfg.Security.RateLimitDisabled {
		logger.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(api.NewHandler(engine, bus, cfg.Events.InteractionsTopic), mwCfg),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))
	logger.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	logger.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logger.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logger.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logger.Info().Msg("Affinigraph stopped gracefully")
}
