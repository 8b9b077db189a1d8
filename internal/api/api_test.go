// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/affinigraph/internal/events"
	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/models"
	"github.com/tomtom215/affinigraph/internal/recommend"
	"github.com/tomtom215/affinigraph/internal/recommend/algorithms"
)

var _ Engine = (*recommend.Engine)(nil)

type fakePublisher struct {
	topic   string
	payload any
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.topic = topic
	p.payload = payload
	return "msg-1", nil
}

func newTestEngine(t *testing.T) *recommend.Engine {
	t.Helper()
	e, err := recommend.NewEngine(recommend.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := algorithms.RegisterAll(e); err != nil {
		t.Fatal(err)
	}
	return e
}

func newTestServer(t *testing.T, pub Publisher) (*recommend.Engine, http.Handler) {
	t.Helper()
	e := newTestEngine(t)
	cfg := DefaultMiddlewareConfig()
	cfg.RateLimitDisabled = true
	return e, NewRouter(NewHandler(e, pub, "interactions.batch"), cfg)
}

// twoPairs: A,B share item 1; C,D share item 2.
func twoPairs() []graph.Interaction {
	return []graph.Interaction{
		{UserID: "A", ItemID: 1, Rating: 4}, {UserID: "A", ItemID: 3, Rating: 5},
		{UserID: "B", ItemID: 1, Rating: 2}, {UserID: "B", ItemID: 4, Rating: 3},
		{UserID: "C", ItemID: 2}, {UserID: "C", ItemID: 5},
		{UserID: "D", ItemID: 2}, {UserID: "D", ItemID: 6},
	}
}

func seed(t *testing.T, e *recommend.Engine) {
	t.Helper()
	res, err := e.Submit(context.Background(), twoPairs())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Recompute(context.Background(), res.Snapshot); err != nil {
		t.Fatal(err)
	}
}

func do(t *testing.T, h http.Handler, method, target string, body any) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp models.APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, resp
}

// decodeData re-decodes the envelope data into out.
func decodeData(t *testing.T, resp models.APIResponse, out any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	e, h := newTestServer(t, nil)

	if rec, _ := do(t, h, http.MethodGet, "/api/v1/health/live", nil); rec.Code != http.StatusOK {
		t.Errorf("live = %d", rec.Code)
	}
	rec, resp := do(t, h, http.MethodGet, "/api/v1/health/ready", nil)
	if rec.Code != http.StatusServiceUnavailable || resp.Error == nil || resp.Error.Code != codeNotReady {
		t.Errorf("ready before submit = %d %+v", rec.Code, resp.Error)
	}

	seed(t, e)
	rec, resp = do(t, h, http.MethodGet, "/api/v1/health/ready", nil)
	if rec.Code != http.StatusOK || resp.Metadata.SnapshotVersion != 1 {
		t.Errorf("ready after submit = %d, version %d", rec.Code, resp.Metadata.SnapshotVersion)
	}
}

func TestSubmitInteractions_Sync(t *testing.T) {
	e, h := newTestServer(t, nil)

	body := models.SubmitInteractionsRequest{Interactions: []models.InteractionInput{
		{UserID: "alice", ItemID: 1, Rating: 5},
		{UserID: "", ItemID: 2},
		{UserID: "bob", ItemID: 1},
	}}
	rec, resp := do(t, h, http.MethodPost, "/api/v1/interactions", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out models.SubmitResponse
	decodeData(t, resp, &out)
	if out.SnapshotVersion != 1 || out.Accepted != 2 {
		t.Errorf("response = %+v", out)
	}
	if len(out.Rejected) != 1 || out.Rejected[0].Index != 1 {
		t.Errorf("rejected = %+v, want index 1", out.Rejected)
	}
	if e.Snapshot() == nil || !e.Snapshot().HasUser("bob") {
		t.Error("bob not in snapshot")
	}
}

func TestSubmitInteractions_Errors(t *testing.T) {
	_, h := newTestServer(t, nil)

	tests := []struct {
		name     string
		target   string
		body     any
		wantCode int
		wantErr  string
	}{
		{"malformed JSON", "/api/v1/interactions", "{", http.StatusBadRequest, codeInvalidRequest},
		{"empty batch", "/api/v1/interactions", models.SubmitInteractionsRequest{}, http.StatusBadRequest, codeValidation},
		{
			"no valid interactions", "/api/v1/interactions",
			models.SubmitInteractionsRequest{Interactions: []models.InteractionInput{{ItemID: 1}}},
			http.StatusBadRequest, codeValidation,
		},
		{
			"async without bus", "/api/v1/interactions?async=true",
			models.SubmitInteractionsRequest{Interactions: []models.InteractionInput{{UserID: "a", ItemID: 1}}},
			http.StatusBadRequest, codeInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if resp.Status != "error" || resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want %s", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestSubmitInteractions_Async(t *testing.T) {
	pub := &fakePublisher{}
	e, h := newTestServer(t, pub)

	body := models.SubmitInteractionsRequest{Interactions: []models.InteractionInput{{UserID: "a", ItemID: 1}}}
	rec, resp := do(t, h, http.MethodPost, "/api/v1/interactions?async=true", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out models.AsyncSubmitResponse
	decodeData(t, resp, &out)
	if out.MessageID != "msg-1" || out.Queued != 1 || out.Topic != "interactions.batch" {
		t.Errorf("response = %+v", out)
	}
	batch, ok := pub.payload.(events.InteractionBatch)
	if !ok || len(batch.Interactions) != 1 || batch.BatchID == "" {
		t.Errorf("published %#v", pub.payload)
	}
	if e.Snapshot() != nil {
		t.Error("async submit must not touch the engine directly")
	}

	pub.err = errors.New("bus down")
	rec, resp = do(t, h, http.MethodPost, "/api/v1/interactions?async=true", body)
	if rec.Code != http.StatusServiceUnavailable || resp.Error.Code != codePublishFailed {
		t.Errorf("publish failure = %d %+v", rec.Code, resp.Error)
	}
}

func TestRecommendations(t *testing.T) {
	e, h := newTestServer(t, nil)

	rec, resp := do(t, h, http.MethodGet, "/api/v1/recommendations/louvain/users/A", nil)
	if rec.Code != http.StatusNotFound || resp.Error.Code != codeUnknownUser {
		t.Errorf("no snapshot = %d %+v", rec.Code, resp.Error)
	}

	// A known user with no result yet is unavailable, not unknown.
	if _, err := e.Submit(context.Background(), twoPairs()); err != nil {
		t.Fatal(err)
	}
	rec, resp = do(t, h, http.MethodGet, "/api/v1/recommendations/louvain/users/A", nil)
	if rec.Code != http.StatusServiceUnavailable || resp.Error.Code != codeAlgorithmUnavailable {
		t.Errorf("before compute = %d %+v", rec.Code, resp.Error)
	}

	seed(t, e)

	rec, resp = do(t, h, http.MethodGet, "/api/v1/recommendations/louvain/users/A", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out models.RecommendationsResponse
	decodeData(t, resp, &out)
	if !reflect.DeepEqual(out.Items, []int64{4}) || out.SnapshotVersion != 2 {
		t.Errorf("response = %+v, want items [4] at version 2", out)
	}

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantErr  string
	}{
		{"unknown algorithm", "/api/v1/recommendations/pagerank/users/A", http.StatusNotFound, codeUnknownAlgorithm},
		{"unknown user", "/api/v1/recommendations/louvain/users/nonexistent_user", http.StatusNotFound, codeUnknownUser},
		{"bad limit", "/api/v1/recommendations/louvain/users/A?limit=0", http.StatusBadRequest, codeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodGet, tt.target, nil)
			if rec.Code != tt.wantCode || resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("got %d %+v, want %d %s", rec.Code, resp.Error, tt.wantCode, tt.wantErr)
			}
		})
	}
}

func TestRecommendations_Limit(t *testing.T) {
	e, h := newTestServer(t, nil)
	seed(t, e)

	// Items 1 and 2 are held by two users each; A has not seen 2, 4, 5 or 6.
	_, resp := do(t, h, http.MethodGet, "/api/v1/recommendations/frequency/users/A?limit=2", nil)
	var out models.RecommendationsResponse
	decodeData(t, resp, &out)
	if !reflect.DeepEqual(out.Items, []int64{2, 4}) {
		t.Errorf("items = %v, want [2 4]", out.Items)
	}
}

func TestStatusAndAlgorithms(t *testing.T) {
	e, h := newTestServer(t, nil)

	_, resp := do(t, h, http.MethodGet, "/api/v1/recommendations/status", nil)
	var status models.StatusResponse
	decodeData(t, resp, &status)
	if len(status.Algorithms) != len(recommend.KnownAlgorithms) || status.Algorithms[0].Status != "pending" {
		t.Errorf("status before compute = %+v", status)
	}

	seed(t, e)
	_, resp = do(t, h, http.MethodGet, "/api/v1/recommendations/status", nil)
	decodeData(t, resp, &status)
	for _, st := range status.Algorithms {
		if st.Status != "ok" || st.SnapshotVersion != 1 {
			t.Errorf("%s = %+v", st.Algorithm, st)
		}
		if st.Algorithm == recommend.AlgorithmLouvain {
			if st.Summary == nil || st.Summary.Communities != 2 || st.Summary.Modularity == nil {
				t.Errorf("louvain summary = %+v", st.Summary)
			}
		}
	}

	_, resp = do(t, h, http.MethodGet, "/api/v1/algorithms", nil)
	var algs models.AlgorithmsResponse
	decodeData(t, resp, &algs)
	if !reflect.DeepEqual(algs.Known, recommend.KnownAlgorithms) || !reflect.DeepEqual(algs.Enabled, recommend.KnownAlgorithms) {
		t.Errorf("algorithms = %+v", algs)
	}
}

func TestCatalog(t *testing.T) {
	e, h := newTestServer(t, nil)
	seed(t, e)

	_, resp := do(t, h, http.MethodGet, "/api/v1/users", nil)
	var users models.UsersResponse
	decodeData(t, resp, &users)
	if users.Total != 4 {
		t.Errorf("users = %+v", users)
	}

	_, resp = do(t, h, http.MethodGet, "/api/v1/users/A", nil)
	var user models.UserResponse
	decodeData(t, resp, &user)
	if !reflect.DeepEqual(user.Items, []int64{1, 3}) || user.Degree != 1 {
		t.Errorf("user A = %+v", user)
	}

	_, resp = do(t, h, http.MethodGet, "/api/v1/items", nil)
	var items models.ItemsResponse
	decodeData(t, resp, &items)
	if !reflect.DeepEqual(items.Items, []int64{1, 2, 3, 4, 5, 6}) {
		t.Errorf("items = %+v", items)
	}

	_, resp = do(t, h, http.MethodGet, "/api/v1/items/1", nil)
	var item models.ItemResponse
	decodeData(t, resp, &item)
	if item.Users != 2 || item.MeanRating != 3 {
		t.Errorf("item 1 = %+v, want 2 users, mean 3", item)
	}

	tests := []struct {
		target   string
		wantCode int
		wantErr  string
	}{
		{"/api/v1/users/nobody", http.StatusNotFound, codeUnknownUser},
		{"/api/v1/items/99", http.StatusNotFound, codeUnknownItem},
		{"/api/v1/items/abc", http.StatusBadRequest, codeInvalidRequest},
		{"/api/v1/nothing", http.StatusNotFound, codeNotFound},
	}
	for _, tt := range tests {
		rec, resp := do(t, h, http.MethodGet, tt.target, nil)
		if rec.Code != tt.wantCode || resp.Error == nil || resp.Error.Code != tt.wantErr {
			t.Errorf("%s: got %d %+v, want %d %s", tt.target, rec.Code, resp.Error, tt.wantCode, tt.wantErr)
		}
	}
}

func TestRegisterUser(t *testing.T) {
	e, h := newTestServer(t, nil)
	seed(t, e)

	rec, resp := do(t, h, http.MethodPost, "/api/v1/users", models.RegisterUserRequest{UserID: "new_user"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var user models.UserResponse
	decodeData(t, resp, &user)
	if user.UserID != "new_user" || user.Items == nil || len(user.Items) != 0 || resp.Metadata.SnapshotVersion != 2 {
		t.Errorf("response = %+v, version %d", user, resp.Metadata.SnapshotVersion)
	}

	// Known before the next recompute, served an empty list.
	rec, resp = do(t, h, http.MethodGet, "/api/v1/recommendations/louvain/users/new_user", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recommendations = %d: %s", rec.Code, rec.Body.String())
	}
	var out models.RecommendationsResponse
	decodeData(t, resp, &out)
	if len(out.Items) != 0 {
		t.Errorf("items = %v, want empty", out.Items)
	}

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"duplicate", models.RegisterUserRequest{UserID: "new_user"}, http.StatusConflict, codeAlreadyExists},
		{"existing rated user", models.RegisterUserRequest{UserID: "A"}, http.StatusConflict, codeAlreadyExists},
		{"blank id", models.RegisterUserRequest{UserID: "  "}, http.StatusBadRequest, codeValidation},
		{"malformed body", "{", http.StatusBadRequest, codeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodPost, "/api/v1/users", tt.body)
			if rec.Code != tt.wantCode || resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("got %d %+v, want %d %s", rec.Code, resp.Error, tt.wantCode, tt.wantErr)
			}
		})
	}
}

func TestRegisterItem(t *testing.T) {
	e, h := newTestServer(t, nil)
	seed(t, e)

	body := models.RegisterItemRequest{
		ItemID:        1,
		Title:         "Heat",
		Poster:        "https://img.example.com/heat.jpg",
		DatePublished: "1995-12-15",
	}
	rec, resp := do(t, h, http.MethodPost, "/api/v1/items", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var item models.ItemResponse
	decodeData(t, resp, &item)
	if item.Title != "Heat" || item.Users != 2 || item.DatePublished != "1995-12-15" {
		t.Errorf("item = %+v", item)
	}

	// An unrated item becomes part of the catalog.
	if rec, _ := do(t, h, http.MethodPost, "/api/v1/items", models.RegisterItemRequest{ItemID: 77, Title: "Jumanji"}); rec.Code != http.StatusCreated {
		t.Fatalf("unrated item status = %d", rec.Code)
	}
	_, resp = do(t, h, http.MethodGet, "/api/v1/items", nil)
	var items models.ItemsResponse
	decodeData(t, resp, &items)
	if !reflect.DeepEqual(items.Items, []int64{1, 2, 3, 4, 5, 6, 77}) {
		t.Errorf("items = %v", items.Items)
	}
	_, resp = do(t, h, http.MethodGet, "/api/v1/items/77", nil)
	decodeData(t, resp, &item)
	if item.Title != "Jumanji" || item.Users != 0 {
		t.Errorf("item 77 = %+v", item)
	}

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"duplicate", body, http.StatusConflict, codeAlreadyExists},
		{"missing title", models.RegisterItemRequest{ItemID: 5}, http.StatusBadRequest, codeValidation},
		{"bad poster", models.RegisterItemRequest{ItemID: 5, Title: "x", Poster: "nope"}, http.StatusBadRequest, codeValidation},
		{"bad date", models.RegisterItemRequest{ItemID: 5, Title: "x", DatePublished: "12/15/1995"}, http.StatusBadRequest, codeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodPost, "/api/v1/items", tt.body)
			if rec.Code != tt.wantCode || resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("got %d %+v, want %d %s", rec.Code, resp.Error, tt.wantCode, tt.wantErr)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	e := newTestEngine(t)
	cfg := DefaultMiddlewareConfig()
	cfg.RateLimitRequests = 2
	h := NewRouter(NewHandler(e, nil, "t"), cfg)

	codes := make([]int, 3)
	for i := range codes {
		rec, _ := do(t, h, http.MethodGet, "/api/v1/algorithms", nil)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// Health checks are exempt.
	if rec, _ := do(t, h, http.MethodGet, "/api/v1/health/live", nil); rec.Code != http.StatusOK {
		t.Errorf("live under limit = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "affinigraph_") {
		t.Errorf("metrics = %d", rec.Code)
	}
}
