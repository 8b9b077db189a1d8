// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package api

import (
	"net/http"

	"github.com/tomtom215/affinigraph/internal/models"
)

// HealthLive always answers 200 while the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, models.HealthResponse{
		Status:          "ok",
		SnapshotVersion: h.snapshotVersion(),
	}, models.Metadata{})
}

// HealthReady answers 200 once a snapshot exists.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	version := h.snapshotVersion()
	if version == 0 {
		respondError(w, r, http.StatusServiceUnavailable, codeNotReady, "no interactions have been submitted yet", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, models.HealthResponse{
		Status:          "ready",
		SnapshotVersion: version,
	}, models.Metadata{SnapshotVersion: version})
}
