// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package sink publishes computed recommendation lists to Redis so other
// services can serve them without querying the engine.
//
// Each user's list for an algorithm is stored as a Redis list under
//
//	<prefix>:<algorithm>:<user>
//
// and a hash <prefix>:<algorithm>:meta records the snapshot version and
// computation time of the lists currently stored. Lists are replaced
// (DEL + RPUSH) inside MULTI/EXEC pipelines.
package sink

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/affinigraph/internal/events"
	"github.com/tomtom215/affinigraph/internal/metrics"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

// Errors
var (
	// ErrFailedResult is returned when asked to write a failed result.
	ErrFailedResult = errors.New("refusing to write a failed result")
)

// Meta describes the lists written for one algorithm.
type Meta struct {
	SnapshotVersion uint64
	ComputedAt      time.Time
	Users           int
}

// Writer stores lists. RedisWriter is the production implementation.
type Writer interface {
	// ReplaceLists replaces every list in lists and expires it after ttl
	// (0 keeps it forever).
	ReplaceLists(ctx context.Context, lists map[string][]int64, ttl time.Duration) error

	// SetMeta stores meta under key.
	SetMeta(ctx context.Context, key string, meta Meta) error
}

// Config configures a Sink.
type Config struct {
	KeyPrefix string
	TTL       time.Duration

	// Breaker guards the writer. Zero values use events.DefaultBreakerConfig.
	Breaker events.BreakerConfig
}

// Sink writes algorithm results through a Writer.
type Sink struct {
	writer  Writer
	breaker *gobreaker.CircuitBreaker[any]
	config  Config
	logger  zerolog.Logger
}

// New creates a sink.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(w Writer, cfg Config, logger zerolog.Logger) *Sink {
	bc := cfg.Breaker
	if bc.Name == "" {
		bc = events.DefaultBreakerConfig("redis-sink")
	}
	return &Sink{
		writer:  w,
		breaker: events.NewCircuitBreaker(bc),
		config:  cfg,
		logger:  logger.With().Str("component", "sink").Logger(),
	}
}

// ListKey returns the list key for a user's recommendations.
func (s *Sink) ListKey(algorithm, userID string) string {
	return s.config.KeyPrefix + ":" + algorithm + ":" + userID
}

// MetaKey returns the meta hash key for an algorithm.
func (s *Sink) MetaKey(algorithm string) string {
	return s.config.KeyPrefix + ":" + algorithm + ":meta"
}

// Write stores every list of r. Users with an empty list get their key
// deleted.
func (s *Sink) Write(ctx context.Context, r *recommend.Result) (err error) {
	if r == nil || !r.OK() {
		return ErrFailedResult
	}
	start := time.Now()
	defer func() { metrics.RecordSinkWrite(r.Algorithm, time.Since(start), err) }()

	lists := make(map[string][]int64, len(r.Map))
	for user, items := range r.Map {
		lists[s.ListKey(r.Algorithm, user)] = items
	}
	meta := Meta{
		SnapshotVersion: r.Snapshot.Version,
		ComputedAt:      r.ComputedAt,
		Users:           len(r.Map),
	}

	_, err = s.breaker.Execute(func() (any, error) {
		if err := s.writer.ReplaceLists(ctx, lists, s.config.TTL); err != nil {
			return nil, err
		}
		return nil, s.writer.SetMeta(ctx, s.MetaKey(r.Algorithm), meta)
	})
	if err != nil {
		return fmt.Errorf("write %s recommendations: %w", r.Algorithm, err)
	}

	s.logger.Debug().
		Str("algorithm", r.Algorithm).
		Uint64("snapshot_version", r.Snapshot.Version).
		Int("users", len(lists)).
		Dur("duration", time.Since(start)).
		Msg("recommendations written to sink")
	return nil
}

// sortedKeys returns the keys of lists in order, so pipelines are chunked
// deterministically.
func sortedKeys(lists map[string][]int64) []string {
	keys := make([]string, 0, len(lists))
	for k := range lists {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func itemArgs(items []int64) []any {
	args := make([]any, len(items))
	for i, item := range items {
		args[i] = strconv.FormatInt(item, 10)
	}
	return args
}
