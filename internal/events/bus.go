// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package events carries interaction batches and computed recommendations
// over a Watermill pub/sub.
//
// Two transports are available:
//
//   - memory: watermill gochannel, in-process (default)
//   - nats: watermill-nats over core NATS (build tag "nats")
//
// Payloads are JSON. Every message carries a UUID and the correlation id of
// the context it was published from.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/affinigraph/internal/logging"
	"github.com/tomtom215/affinigraph/internal/metrics"
)

// Transports.
const (
	TransportMemory = "memory"
	TransportNATS   = "nats"
)

// MetadataCorrelationID is the message metadata key for the correlation id.
const MetadataCorrelationID = "correlation_id"

// Errors
var (
	// ErrBusClosed is returned by Publish after Close.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrUnknownTransport is returned for a transport other than memory or nats.
	ErrUnknownTransport = errors.New("unknown event transport")
)

// Config configures the bus.
type Config struct {
	Transport        string
	NATSURL          string
	QueueGroup       string
	SubscribersCount int
	BufferSize       int64
	AckWaitTimeout   time.Duration

	// Breaker guards Publish. Zero values use DefaultBreakerConfig.
	Breaker BreakerConfig
}

// Bus publishes and subscribes JSON payloads.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[any]
	logger     watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// New creates a bus for cfg.Transport.
func New(cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	switch cfg.Transport {
	case TransportMemory, "":
		return NewMemoryBus(cfg, logger), nil
	case TransportNATS:
		return NewNATSBus(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
}

// NewMemoryBus creates an in-process bus. Messages published before a
// subscriber exists are dropped.
func NewMemoryBus(cfg Config, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)
	return newBus(pubSub, pubSub, cfg, logger)
}

func newBus(pub message.Publisher, sub message.Subscriber, cfg Config, logger watermill.LoggerAdapter) *Bus {
	bc := cfg.Breaker
	if bc.Name == "" {
		bc = DefaultBreakerConfig("event-publisher")
	}
	return &Bus{
		publisher:  pub,
		subscriber: sub,
		breaker:    NewCircuitBreaker(bc),
		logger:     logger,
	}
}

// Publish encodes payload as JSON and publishes it on topic. It returns the
// message id.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) (string, error) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return "", ErrBusClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), data)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}

	_, err = b.breaker.Execute(func() (any, error) {
		return nil, b.publisher.Publish(topic, msg)
	})
	metrics.RecordPublish(topic, err)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", topic, err)
	}
	return msg.UUID, nil
}

// Subscribe returns the message channel for topic. It closes when ctx is
// cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

// Handler processes one message. A returned error nacks the message.
type Handler func(ctx context.Context, msg *message.Message) error

// Consume subscribes to topic and runs handler for every message until ctx
// is cancelled or the subscription closes. The handler context carries the
// message correlation id.
func (b *Bus) Consume(ctx context.Context, topic string, handler Handler) error {
	msgs, err := b.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			hctx := ctx
			if id := msg.Metadata.Get(MetadataCorrelationID); id != "" {
				hctx = logging.ContextWithCorrelationID(ctx, id)
			}
			if err := handler(hctx, msg); err != nil {
				b.logger.Error("message handler failed", err, watermill.LogFields{
					"topic":      topic,
					"message_id": msg.UUID,
				})
				msg.Nack()
				metrics.RecordConsume(topic, false)
				continue
			}
			msg.Ack()
			metrics.RecordConsume(topic, true)
		}
	}
}

// Decode unmarshals a message payload.
func Decode(msg *message.Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("decode message %s: %w", msg.UUID, err)
	}
	return nil
}

// Close shuts down the publisher and subscriber.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	// gochannel uses one value for both sides.
	if any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	return errors.Join(errs...)
}
