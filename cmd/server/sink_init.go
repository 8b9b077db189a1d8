// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/affinigraph/internal/config"
	"github.com/tomtom215/affinigraph/internal/sink"
)

// initSink connects to Redis and returns the sink and its writer, or nils
// when the sink is disabled. The writer must be closed on shutdown.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initSink(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*sink.Sink, *sink.RedisWriter, error) {
	if !cfg.Sink.Enabled {
		logger.Info().Msg("Redis sink disabled (REDIS_SINK_ENABLED=false)")
		return nil, nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	writer, err := sink.NewRedisWriter(pingCtx, sink.RedisConfig{
		Addr:     cfg.Sink.Addr,
		Password: cfg.Sink.Password,
		DB:       cfg.Sink.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	s := sink.New(writer, sink.Config{
		KeyPrefix: cfg.Sink.KeyPrefix,
		TTL:       cfg.Sink.TTL,
	}, logger)
	logger.Info().
		Str("addr", cfg.Sink.Addr).
		Str("key_prefix", cfg.Sink.KeyPrefix).
		Dur("ttl", cfg.Sink.TTL).
		Msg("Redis sink enabled")
	return s, writer, nil
}
