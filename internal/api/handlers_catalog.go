// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/models"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

// Users lists every user of the current snapshot.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	users := h.engine.Users()
	respondSuccess(w, r, http.StatusOK, models.UsersResponse{
		Total: len(users),
		Users: users,
	}, models.Metadata{SnapshotVersion: h.snapshotVersion()})
}

// User returns one user's history and degree.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	info, err := h.engine.User(chi.URLParam(r, "userID"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, models.UserResponse{
		UserID: info.UserID,
		Items:  info.Items,
		Degree: info.Degree,
	}, models.Metadata{SnapshotVersion: h.snapshotVersion()})
}

// Items lists every item of the current snapshot.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	items := h.engine.Items()
	respondSuccess(w, r, http.StatusOK, models.ItemsResponse{
		Total: len(items),
		Items: items,
	}, models.Metadata{SnapshotVersion: h.snapshotVersion()})
}

// Item returns one item's statistics.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "item id must be an integer", nil)
		return
	}
	st, err := h.engine.Item(id)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, toItemResponse(st), models.Metadata{SnapshotVersion: h.snapshotVersion()})
}

func toItemResponse(st *recommend.ItemStats) models.ItemResponse {
	out := models.ItemResponse{
		ItemID:     st.ItemID,
		Users:      st.Users,
		MeanRating: st.MeanRating,
	}
	if m := st.Metadata; m != nil {
		out.Title = m.Title
		out.Poster = m.Poster
		out.DatePublished = m.DatePublished
		out.Homepage = m.Homepage
	}
	return out
}

// RegisterUser adds a user with an empty history. It answers 201 with the
// new user and 409 when the id is already known.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req models.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body: "+err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	snap, err := h.engine.RegisterUser(r.Context(), req.UserID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, models.UserResponse{
		UserID: req.UserID,
		Items:  []int64{},
		Degree: 0,
	}, models.Metadata{SnapshotVersion: snap.Version})
}

// RegisterItem stores catalog metadata for an item. It answers 201 with the
// item and 409 when the id already has metadata.
func (h *Handler) RegisterItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req models.RegisterItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body: "+err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	item := graph.Item{
		ItemID:        req.ItemID,
		Title:         req.Title,
		Poster:        req.Poster,
		DatePublished: req.DatePublished,
		Homepage:      req.Homepage,
	}
	if err := h.engine.RegisterItem(r.Context(), item); err != nil {
		respondEngineError(w, r, err)
		return
	}
	st, err := h.engine.Item(item.ItemID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, toItemResponse(st), models.Metadata{SnapshotVersion: h.snapshotVersion()})
}
