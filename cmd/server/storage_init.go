// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/affinigraph/internal/config"
	"github.com/tomtom215/affinigraph/internal/store"
)

// initStore opens the interaction log and compacts it so the restore replay
// touches one batch. It returns nil when storage is disabled.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*store.BadgerStore, error) {
	if !cfg.Storage.Enabled {
		logger.Warn().Msg("interaction storage disabled (STORAGE_ENABLED=false), snapshots are lost on restart")
		return nil, nil
	}

	st, err := store.Open(store.Config{
		Path:       cfg.Storage.Path,
		SyncWrites: cfg.Storage.SyncWrites,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open interaction store: %w", err)
	}

	if _, err := st.Compact(ctx); err != nil {
		logger.Warn().Err(err).Msg("interaction log compaction failed, replaying uncompacted log")
	}
	if err := st.RunGC(); err != nil {
		logger.Warn().Err(err).Msg("interaction store GC failed")
	}
	return st, nil
}
