// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/affinigraph/internal/events"
	"github.com/tomtom215/affinigraph/internal/metrics"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

// RecomputeEngine is the part of recommend.Engine the recompute loop uses.
type RecomputeEngine interface {
	Snapshot() *recommend.Snapshot
	Updates() <-chan struct{}
	Recompute(ctx context.Context, snap *recommend.Snapshot) ([]*recommend.Result, error)
}

// EventPublisher publishes a payload on a topic. *events.Bus satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RecomputeServiceConfig configures the recompute loop.
type RecomputeServiceConfig struct {
	// MinInterval is the minimum time between job starts. Zero disables
	// throttling.
	MinInterval time.Duration

	// Topic receives a RecommendationsComputed event per published result.
	// Empty disables announcements.
	Topic string
}

// RecomputeService recomputes recommendations whenever the engine publishes
// a new snapshot. A new snapshot supersedes the job in flight: the job is
// cancelled (publishing nothing) and a new one starts on the newest snapshot.
type RecomputeService struct {
	engine    RecomputeEngine
	publisher EventPublisher
	config    RecomputeServiceConfig
	logger    zerolog.Logger
	name      string
}

// NewRecomputeService creates the service. publisher may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecomputeService(engine RecomputeEngine, publisher EventPublisher, cfg RecomputeServiceConfig, logger zerolog.Logger) *RecomputeService {
	return &RecomputeService{
		engine:    engine,
		publisher: publisher,
		config:    cfg,
		logger:    logger.With().Str("service", "recompute").Logger(),
		name:      "recompute-service",
	}
}

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// stop cancels the job and waits for it to unwind.
func (j *job) stop() {
	j.cancel()
	<-j.done
}

// Serve implements suture.Service.
func (s *RecomputeService) Serve(ctx context.Context) error {
	limit := rate.Inf
	if s.config.MinInterval > 0 {
		limit = rate.Every(s.config.MinInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	s.logger.Info().
		Dur("min_interval", s.config.MinInterval).
		Str("topic", s.config.Topic).
		Msg("recompute service starting")

	var current *job
	defer func() {
		if current != nil {
			current.stop()
		}
	}()

	// A snapshot restored before the service started has not been computed.
	if s.engine.Snapshot() != nil {
		if err := limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
		current = s.start(ctx)
	}

	updates := s.engine.Updates()
	for {
		var done chan struct{}
		if current != nil {
			done = current.done
		}

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("recompute service shutting down")
			return ctx.Err()

		case <-done:
			current = nil

		case <-updates:
			if current != nil {
				current.stop()
				current = nil
			}
			if err := limiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
			current = s.start(ctx)
		}
	}
}

func (s *RecomputeService) start(ctx context.Context) *job {
	snap := s.engine.Snapshot()
	jobCtx, cancel := context.WithCancel(ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(j.done)
		defer cancel()
		s.run(jobCtx, snap)
	}()
	return j
}

func (s *RecomputeService) run(ctx context.Context, snap *recommend.Snapshot) {
	start := time.Now()
	results, err := s.engine.Recompute(ctx, snap)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			metrics.RecordRecomputeJob(true)
			s.logger.Debug().Uint64("version", snap.Version).Msg("recompute superseded")
			return
		}
		s.logger.Error().Err(err).Msg("recompute failed")
		return
	}
	metrics.RecordRecomputeJob(false)

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
			s.logger.Warn().
				Str("algorithm", r.Algorithm).
				Str("reason", r.Reason).
				Uint64("version", snap.Version).
				Msg("algorithm failed")
		}
		s.announce(ctx, r)
	}

	s.logger.Info().
		Uint64("version", snap.Version).
		Int("published", len(results)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("recompute complete")
}

func (s *RecomputeService) announce(ctx context.Context, r *recommend.Result) {
	if s.publisher == nil || s.config.Topic == "" {
		return
	}
	ev := events.RecommendationsComputed{
		Algorithm:       r.Algorithm,
		SnapshotVersion: r.Snapshot.Version,
		Status:          string(r.Status),
		Reason:          r.Reason,
		Users:           len(r.Map),
		Duration:        r.Duration,
		ComputedAt:      r.ComputedAt,
	}
	if _, err := s.publisher.Publish(ctx, s.config.Topic, ev); err != nil {
		s.logger.Warn().Err(err).Str("algorithm", r.Algorithm).Msg("announce result failed")
	}
}

func (s *RecomputeService) String() string {
	return s.name
}
