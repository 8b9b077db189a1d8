// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/models"
	"github.com/tomtom215/affinigraph/internal/recommend"
	"github.com/tomtom215/affinigraph/internal/validation"
)

// Engine is the part of recommend.Engine the handlers use.
type Engine interface {
	Snapshot() *recommend.Snapshot
	Submit(ctx context.Context, records []graph.Interaction) (*recommend.SubmitResult, error)
	Lookup(userID, algorithm string) (*recommend.Recommendation, error)
	Algorithms() []string
	Status() []recommend.AlgorithmState
	Users() []string
	User(userID string) (*recommend.UserInfo, error)
	Items() []int64
	Item(itemID int64) (*recommend.ItemStats, error)
	RegisterUser(ctx context.Context, userID string) (*recommend.Snapshot, error)
	RegisterItem(ctx context.Context, item graph.Item) error
}

// Publisher queues payloads on the event bus. *events.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// DefaultMaxBodyBytes bounds POST bodies.
const DefaultMaxBodyBytes = 8 << 20

// Handler serves the API endpoints.
type Handler struct {
	engine       Engine
	publisher    Publisher
	topic        string
	maxBodyBytes int64
}

// NewHandler creates the handlers. publisher may be nil, which disables
// asynchronous submission.
func NewHandler(engine Engine, publisher Publisher, interactionsTopic string) *Handler {
	return &Handler{
		engine:       engine,
		publisher:    publisher,
		topic:        interactionsTopic,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

func (h *Handler) snapshotVersion() uint64 {
	if snap := h.engine.Snapshot(); snap != nil {
		return snap.Version
	}
	return 0
}

// validateRequest runs the struct validator and converts failures to the
// VALIDATION_ERROR format.
func validateRequest(v interface{}) *models.APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// positiveIntParam parses an optional positive integer query parameter.
// It returns 0 when the parameter is absent.
func positiveIntParam(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
