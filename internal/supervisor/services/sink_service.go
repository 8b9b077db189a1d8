// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package services

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/affinigraph/internal/events"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

// ResultSource returns the stored result of an algorithm.
// *recommend.Engine satisfies it.
type ResultSource interface {
	Result(algorithm string) (*recommend.Result, error)
}

// ResultWriter writes a result to external storage. *sink.Sink satisfies it.
type ResultWriter interface {
	Write(ctx context.Context, r *recommend.Result) error
}

// SinkService writes every announced result to the sink.
type SinkService struct {
	source   ResultSource
	writer   ResultWriter
	consumer EventConsumer
	topic    string
	logger   zerolog.Logger
	name     string
}

// NewSinkService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSinkService(source ResultSource, writer ResultWriter, consumer EventConsumer, topic string, logger zerolog.Logger) *SinkService {
	return &SinkService{
		source:   source,
		writer:   writer,
		consumer: consumer,
		topic:    topic,
		logger:   logger.With().Str("service", "sink").Logger(),
		name:     "sink-service",
	}
}

// Serve implements suture.Service.
func (s *SinkService) Serve(ctx context.Context) error {
	s.logger.Info().Str("topic", s.topic).Msg("sink service starting")
	return s.consumer.Consume(ctx, s.topic, s.handle)
}

// handle writes the stored result if it still matches the announced
// snapshot version. Write failures are logged and acked: the next
// computation rewrites every list.
func (s *SinkService) handle(ctx context.Context, msg *message.Message) error {
	var ev events.RecommendationsComputed
	if err := events.Decode(msg, &ev); err != nil {
		s.logger.Error().Err(err).Msg("dropping malformed event")
		return nil
	}
	if ev.Status != string(recommend.StatusOK) {
		return nil
	}

	r, err := s.source.Result(ev.Algorithm)
	if err != nil {
		s.logger.Warn().Err(err).Str("algorithm", ev.Algorithm).Msg("unknown algorithm in event")
		return nil
	}
	if r == nil || r.Snapshot.Version != ev.SnapshotVersion {
		s.logger.Debug().
			Str("algorithm", ev.Algorithm).
			Uint64("version", ev.SnapshotVersion).
			Msg("result superseded before sink write")
		return nil
	}

	if err := s.writer.Write(ctx, r); err != nil {
		s.logger.Error().Err(err).
			Str("algorithm", ev.Algorithm).
			Uint64("version", ev.SnapshotVersion).
			Msg("sink write failed")
	}
	return nil
}

func (s *SinkService) String() string {
	return s.name
}
