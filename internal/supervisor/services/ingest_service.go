// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package services

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/affinigraph/internal/events"
	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/logging"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

// Submitter accepts interaction batches. *recommend.Engine satisfies it.
type Submitter interface {
	Submit(ctx context.Context, records []graph.Interaction) (*recommend.SubmitResult, error)
}

// EventConsumer runs a handler for every message on a topic. *events.Bus
// satisfies it.
type EventConsumer interface {
	Consume(ctx context.Context, topic string, handler events.Handler) error
}

// IngestService submits interaction batches received on the bus.
type IngestService struct {
	engine   Submitter
	consumer EventConsumer
	topic    string
	logger   zerolog.Logger
	name     string
}

// NewIngestService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewIngestService(engine Submitter, consumer EventConsumer, topic string, logger zerolog.Logger) *IngestService {
	return &IngestService{
		engine:   engine,
		consumer: consumer,
		topic:    topic,
		logger:   logger.With().Str("service", "ingest").Logger(),
		name:     "ingest-service",
	}
}

// Serve implements suture.Service.
func (s *IngestService) Serve(ctx context.Context) error {
	s.logger.Info().Str("topic", s.topic).Msg("ingest service starting")
	return s.consumer.Consume(ctx, s.topic, s.handle)
}

// handle acks malformed and fully invalid batches, since redelivery cannot
// fix them. A persistence failure nacks for redelivery.
func (s *IngestService) handle(ctx context.Context, msg *message.Message) error {
	logger := s.logger.With().
		Str("message_id", msg.UUID).
		Str("correlation_id", logging.CorrelationIDFromContext(ctx)).
		Logger()

	var batch events.InteractionBatch
	if err := events.Decode(msg, &batch); err != nil {
		logger.Error().Err(err).Msg("dropping malformed batch")
		return nil
	}

	res, err := s.engine.Submit(ctx, batch.Interactions)
	switch {
	case errors.Is(err, recommend.ErrNoValidInteractions):
		logger.Warn().
			Str("batch_id", batch.BatchID).
			Int("rejected", len(res.Rejected)).
			Msg("batch had no valid interactions")
		return nil
	case err != nil:
		return err
	}

	logger.Info().
		Str("batch_id", batch.BatchID).
		Uint64("version", res.Snapshot.Version).
		Int("accepted", res.Accepted).
		Int("rejected", len(res.Rejected)).
		Msg("batch ingested")
	return nil
}

func (s *IngestService) String() string {
	return s.name
}
