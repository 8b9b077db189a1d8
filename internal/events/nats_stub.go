// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

//go:build !nats

package events

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill"
)

// ErrNATSNotBuilt is returned when the nats transport is requested from a
// binary built without the nats tag.
var ErrNATSNotBuilt = errors.New("nats transport requires building with -tags nats")

// NewNATSBus is unavailable without the nats build tag.
func NewNATSBus(_ Config, _ watermill.LoggerAdapter) (*Bus, error) {
	return nil, ErrNATSNotBuilt
}
