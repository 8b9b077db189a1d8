// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/logging"
	"github.com/tomtom215/affinigraph/internal/models"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

// Error codes.
const (
	codeValidation           = "VALIDATION_ERROR"
	codeInvalidRequest       = "INVALID_REQUEST"
	codeNotFound             = "NOT_FOUND"
	codeUnknownAlgorithm     = "UNKNOWN_ALGORITHM"
	codeUnknownUser          = "UNKNOWN_USER"
	codeUnknownItem          = "UNKNOWN_ITEM"
	codeAlgorithmUnavailable = "ALGORITHM_UNAVAILABLE"
	codeNotReady             = "NOT_READY"
	codePublishFailed        = "PUBLISH_FAILED"
	codeInternal             = "INTERNAL_ERROR"
	codeRateLimited          = "RATE_LIMIT_EXCEEDED"
	codeAlreadyExists        = "ALREADY_EXISTS"
)

// sanitizeLogValue escapes control characters so client input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("failed to write JSON response")
	}
}

// respondSuccess writes data with status 200 unless status is given.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, meta models.Metadata) {
	meta.Timestamp = time.Now().UTC()
	respondJSON(w, r, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	if status >= 500 {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("message", sanitizeLogValue(message)).
			Msg("API error")
	}
	respondJSON(w, r, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondEngineError maps recommend errors to status codes.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrUnknownAlgorithm):
		respondError(w, r, http.StatusNotFound, codeUnknownAlgorithm, err.Error(), map[string]interface{}{
			"known": recommend.KnownAlgorithms,
		})
	case errors.Is(err, recommend.ErrUnknownUser):
		respondError(w, r, http.StatusNotFound, codeUnknownUser, err.Error(), nil)
	case errors.Is(err, recommend.ErrUnknownItem):
		respondError(w, r, http.StatusNotFound, codeUnknownItem, err.Error(), nil)
	case errors.Is(err, recommend.ErrUserExists), errors.Is(err, recommend.ErrItemExists):
		respondError(w, r, http.StatusConflict, codeAlreadyExists, err.Error(), nil)
	case errors.Is(err, graph.ErrInvalidCatalogEntry):
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
	case errors.Is(err, recommend.ErrAlgorithmUnavailable):
		w.Header().Set("Retry-After", "5")
		respondError(w, r, http.StatusServiceUnavailable, codeAlgorithmUnavailable, err.Error(), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, codeInternal, "internal error", nil)
		logging.Ctx(r.Context()).Error().Err(err).Msg("unexpected engine error")
	}
}
