// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package middleware

import (
	"net/http"

	"github.com/tomtom215/affinigraph/internal/logging"
)

// Headers carrying the tracing ids.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// maxIDLength bounds ids accepted from clients.
const maxIDLength = 128

// RequestID attaches a request id and a correlation id to the request
// context and echoes both in the response headers. Ids sent by the client
// are kept; missing ones are generated. The correlation id follows the
// request onto the event bus.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := clientID(r, HeaderRequestID)
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		correlationID := clientID(r, HeaderCorrelationID)
		if correlationID == "" {
			correlationID = logging.GenerateCorrelationID()
		}

		w.Header().Set(HeaderRequestID, requestID)
		w.Header().Set(HeaderCorrelationID, correlationID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientID(r *http.Request, header string) string {
	id := r.Header.Get(header)
	if len(id) > maxIDLength {
		return ""
	}
	for _, c := range id {
		if c < 0x21 || c == 0x7F {
			return ""
		}
	}
	return id
}
