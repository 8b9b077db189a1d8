// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package api

import (
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/affinigraph/internal/models"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

// Recommendations returns one user's list from one algorithm. ?limit=N
// truncates it.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	algorithm := chi.URLParam(r, "algorithm")
	userID := chi.URLParam(r, "userID")

	limit, ok := positiveIntParam(r, "limit")
	if !ok {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "limit must be a positive integer", nil)
		return
	}

	rec, err := h.engine.Lookup(userID, algorithm)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	items := rec.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	version := rec.Result.Snapshot.Version
	respondSuccess(w, r, http.StatusOK, models.RecommendationsResponse{
		Algorithm:       algorithm,
		UserID:          userID,
		Items:           items,
		SnapshotVersion: version,
		ComputedAt:      rec.Result.ComputedAt,
	}, models.Metadata{
		SnapshotVersion: version,
		QueryTimeMS:     time.Since(start).Milliseconds(),
	})
}

// Algorithms lists the known and enabled algorithm ids.
func (h *Handler) Algorithms(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, models.AlgorithmsResponse{
		Known:   recommend.KnownAlgorithms,
		Enabled: h.engine.Algorithms(),
	}, models.Metadata{})
}

// RecommendationStatus reports the latest result of every enabled algorithm.
func (h *Handler) RecommendationStatus(w http.ResponseWriter, r *http.Request) {
	states := h.engine.Status()
	out := make([]models.AlgorithmStatus, len(states))
	for i, st := range states {
		out[i] = models.AlgorithmStatus{
			Algorithm:       st.Algorithm,
			Status:          st.Status,
			Reason:          st.Reason,
			SnapshotVersion: st.SnapshotVersion,
			DurationMS:      st.Duration.Milliseconds(),
			Summary:         toSummary(st),
		}
		if !st.ComputedAt.IsZero() {
			at := st.ComputedAt
			out[i].ComputedAt = &at
		}
	}

	version := h.snapshotVersion()
	respondSuccess(w, r, http.StatusOK, models.StatusResponse{
		SnapshotVersion: version,
		Algorithms:      out,
	}, models.Metadata{SnapshotVersion: version})
}

func toSummary(st recommend.AlgorithmState) *models.AlgorithmSummary {
	if st.Summary == nil {
		return nil
	}
	s := st.Summary
	out := &models.AlgorithmSummary{
		Communities:    s.Communities,
		Levels:         s.Levels,
		PredictedLinks: s.PredictedLinks,
		InfectedUsers:  s.InfectedUsers,
		Rounds:         s.Rounds,
		Warnings:       s.Warnings,
		Users:          st.Users,
	}
	if s.HasModularity && !math.IsNaN(s.Modularity) && !math.IsInf(s.Modularity, 0) {
		q := s.Modularity
		out.Modularity = &q
	}
	return out
}
