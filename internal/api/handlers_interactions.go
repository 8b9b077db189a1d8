// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/affinigraph/internal/events"
	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/logging"
	"github.com/tomtom215/affinigraph/internal/models"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

func toInteractions(in []models.InteractionInput) []graph.Interaction {
	out := make([]graph.Interaction, len(in))
	for i, rec := range in {
		out[i] = graph.Interaction{
			UserID:    rec.UserID,
			ItemID:    rec.ItemID,
			Rating:    rec.Rating,
			Timestamp: rec.Timestamp,
		}
	}
	return out
}

func toRejected(rejected []*graph.InvalidInteractionError) []models.RejectedInteraction {
	out := make([]models.RejectedInteraction, len(rejected))
	for i, e := range rejected {
		out[i] = models.RejectedInteraction{
			Index:  e.Index,
			Reason: e.Reason,
			Record: models.InteractionInput{
				UserID:    e.Record.UserID,
				ItemID:    e.Record.ItemID,
				Rating:    e.Record.Rating,
				Timestamp: e.Record.Timestamp,
			},
		}
	}
	return out
}

// SubmitInteractions accepts a batch of interactions.
//
// Synchronous submission (default) answers 200 with the new snapshot version
// and the rejected records. With ?async=true the batch is queued on the
// event bus and the handler answers 202 with the message id.
func (h *Handler) SubmitInteractions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req models.SubmitInteractionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body: "+err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}
	records := toInteractions(req.Interactions)

	if r.URL.Query().Get("async") == "true" {
		h.submitAsync(w, r, records)
		return
	}

	res, err := h.engine.Submit(r.Context(), records)
	if errors.Is(err, recommend.ErrNoValidInteractions) {
		respondError(w, r, http.StatusBadRequest, codeValidation, "no valid interactions in batch", map[string]interface{}{
			"rejected": toRejected(res.Rejected),
		})
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to submit interactions", nil)
		logging.Ctx(r.Context()).Error().Err(err).Msg("submit failed")
		return
	}

	logging.Ctx(r.Context()).Info().
		Uint64("version", res.Snapshot.Version).
		Int("accepted", res.Accepted).
		Int("rejected", len(res.Rejected)).
		Msg("interactions submitted")

	respondSuccess(w, r, http.StatusOK, models.SubmitResponse{
		SnapshotVersion: res.Snapshot.Version,
		Accepted:        res.Accepted,
		Rejected:        toRejected(res.Rejected),
	}, models.Metadata{SnapshotVersion: res.Snapshot.Version})
}

func (h *Handler) submitAsync(w http.ResponseWriter, r *http.Request, records []graph.Interaction) {
	if h.publisher == nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "asynchronous submission is not enabled", nil)
		return
	}

	batch := events.InteractionBatch{
		BatchID:      uuid.New().String(),
		Interactions: records,
		ReceivedAt:   time.Now().UTC(),
	}
	id, err := h.publisher.Publish(r.Context(), h.topic, batch)
	if err != nil {
		w.Header().Set("Retry-After", "5")
		respondError(w, r, http.StatusServiceUnavailable, codePublishFailed, "failed to queue interactions", nil)
		logging.Ctx(r.Context()).Error().Err(err).Msg("publish interactions failed")
		return
	}

	respondSuccess(w, r, http.StatusAccepted, models.AsyncSubmitResponse{
		MessageID: id,
		Topic:     h.topic,
		Queued:    len(records),
	}, models.Metadata{})
}
