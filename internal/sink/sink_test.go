// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package sink

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/affinigraph/internal/events"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

type fakeWriter struct {
	lists map[string][]int64
	ttl   time.Duration
	meta  map[string]Meta
	err   error
	calls int
}

func (f *fakeWriter) ReplaceLists(_ context.Context, lists map[string][]int64, ttl time.Duration) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.lists = lists
	f.ttl = ttl
	return nil
}

func (f *fakeWriter) SetMeta(_ context.Context, key string, meta Meta) error {
	if f.meta == nil {
		f.meta = map[string]Meta{}
	}
	f.meta[key] = meta
	return nil
}

func okResult() *recommend.Result {
	return &recommend.Result{
		Algorithm:  recommend.AlgorithmLouvain,
		Snapshot:   &recommend.Snapshot{Version: 3},
		Status:     recommend.StatusOK,
		Map:        recommend.RecommendationMap{"alice": {3, 1}, "bob": {}},
		ComputedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestWrite(t *testing.T) {
	w := &fakeWriter{}
	s := New(w, Config{KeyPrefix: "rec", TTL: time.Hour}, zerolog.Nop())

	if err := s.Write(context.Background(), okResult()); err != nil {
		t.Fatal(err)
	}
	want := map[string][]int64{
		"rec:louvain:alice": {3, 1},
		"rec:louvain:bob":   {},
	}
	if !reflect.DeepEqual(w.lists, want) {
		t.Errorf("lists = %v, want %v", w.lists, want)
	}
	if w.ttl != time.Hour {
		t.Errorf("ttl = %v", w.ttl)
	}
	meta, ok := w.meta["rec:louvain:meta"]
	if !ok || meta.SnapshotVersion != 3 || meta.Users != 2 {
		t.Errorf("meta = %+v (present %v)", meta, ok)
	}
}

func TestWrite_RejectsFailedResult(t *testing.T) {
	w := &fakeWriter{}
	s := New(w, Config{KeyPrefix: "rec"}, zerolog.Nop())

	failed := okResult()
	failed.Status = recommend.StatusFailed
	for _, r := range []*recommend.Result{nil, failed} {
		if err := s.Write(context.Background(), r); !errors.Is(err, ErrFailedResult) {
			t.Errorf("err = %v, want ErrFailedResult", err)
		}
	}
	if w.calls != 0 {
		t.Errorf("writer called %d times", w.calls)
	}
}

func TestWrite_BreakerOpens(t *testing.T) {
	w := &fakeWriter{err: errors.New("connection refused")}
	bc := events.DefaultBreakerConfig("sink-test")
	bc.FailureThreshold = 2
	s := New(w, Config{KeyPrefix: "rec", Breaker: bc}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if err := s.Write(context.Background(), okResult()); err == nil {
			t.Fatal("expected error")
		}
	}
	if err := s.Write(context.Background(), okResult()); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if w.calls != 2 {
		t.Errorf("writer called %d times, want 2", w.calls)
	}
}

func TestKeys(t *testing.T) {
	s := New(&fakeWriter{}, Config{KeyPrefix: "affinigraph:rec"}, zerolog.Nop())
	if got := s.ListKey("frequency", "u1"); got != "affinigraph:rec:frequency:u1" {
		t.Errorf("ListKey = %q", got)
	}
	if got := s.MetaKey("frequency"); got != "affinigraph:rec:frequency:meta" {
		t.Errorf("MetaKey = %q", got)
	}
}

func TestItemArgs(t *testing.T) {
	got := itemArgs([]int64{5, -1, 10})
	want := []any{"5", "-1", "10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("itemArgs = %v, want %v", got, want)
	}
	keys := sortedKeys(map[string][]int64{"b": nil, "a": nil, "c": nil})
	if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Errorf("sortedKeys = %v", keys)
	}
}
