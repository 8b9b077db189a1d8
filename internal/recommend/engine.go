// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package recommend

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/metrics"
)

// Store persists accepted interactions and the registered catalog so a
// restarted engine can rebuild its snapshot. Implemented by the store package.
type Store interface {
	Append(ctx context.Context, interactions []graph.Interaction) error
	Load(ctx context.Context) ([]graph.Interaction, error)
	PutUser(ctx context.Context, userID string) error
	LoadUsers(ctx context.Context) ([]string, error)
	PutItem(ctx context.Context, item graph.Item) error
	LoadItems(ctx context.Context) ([]graph.Item, error)
}

// Engine owns the current snapshot and the latest result of every algorithm.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	store  Store

	algMu      sync.RWMutex
	algorithms map[string]Algorithm

	// submitMu serialises snapshot construction.
	submitMu sync.Mutex
	version  uint64
	snapshot atomic.Pointer[Snapshot]

	// One slot per known algorithm, created up front so the map is read-only.
	results map[string]*atomic.Pointer[Result]

	catalogMu sync.RWMutex
	catalog   map[int64]graph.Item

	updates chan struct{}
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config:     cfg,
		logger:     logger.With().Str("component", "recommend").Logger(),
		algorithms: make(map[string]Algorithm),
		results:    make(map[string]*atomic.Pointer[Result], len(KnownAlgorithms)),
		catalog:    make(map[int64]graph.Item),
		updates:    make(chan struct{}, 1),
	}
	for _, id := range KnownAlgorithms {
		e.results[id] = new(atomic.Pointer[Result])
	}
	return e, nil
}

// Config returns the engine configuration. It must not be modified.
func (e *Engine) Config() *Config {
	return e.config
}

// SetStore attaches durable interaction storage. Call before Restore/Submit.
func (e *Engine) SetStore(s Store) {
	e.store = s
}

// Register adds an algorithm. The id must be one of KnownAlgorithms and may
// be registered only once.
func (e *Engine) Register(alg Algorithm) error {
	id := alg.ID()
	if !IsKnownAlgorithm(id) {
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, id)
	}

	e.algMu.Lock()
	defer e.algMu.Unlock()
	if _, ok := e.algorithms[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateAlgorithm, id)
	}
	e.algorithms[id] = alg

	e.logger.Info().
		Str("algorithm", id).
		Bool("enabled", e.config.enabled(id)).
		Msg("registered algorithm")
	return nil
}

// Algorithms returns the ids of registered, enabled algorithms in
// KnownAlgorithms order.
func (e *Engine) Algorithms() []string {
	algs := e.activeAlgorithms()
	ids := make([]string, len(algs))
	for i, a := range algs {
		ids[i] = a.ID()
	}
	return ids
}

func (e *Engine) activeAlgorithms() []Algorithm {
	e.algMu.RLock()
	defer e.algMu.RUnlock()

	out := make([]Algorithm, 0, len(e.algorithms))
	for _, id := range KnownAlgorithms {
		if alg, ok := e.algorithms[id]; ok && e.config.enabled(id) {
			out = append(out, alg)
		}
	}
	return out
}

// Snapshot returns the latest snapshot, or nil before the first submit.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Updates delivers a signal after every new snapshot. Signals coalesce: a
// receiver that falls behind sees one pending signal and should read
// Snapshot for the newest state.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

func (e *Engine) notify() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// Restore rebuilds the snapshot and the item catalog from the attached
// store. It does nothing without a store or when the store is empty.
func (e *Engine) Restore(ctx context.Context) (*Snapshot, error) {
	if e.store == nil {
		return nil, nil
	}
	interactions, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	users, err := e.store.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	items, err := e.store.LoadItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	e.catalogMu.Lock()
	for _, it := range items {
		e.catalog[it.ItemID] = it
	}
	e.catalogMu.Unlock()

	if len(interactions) == 0 && len(users) == 0 {
		return nil, nil
	}

	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	snap := e.publishSnapshot(graph.Build(interactions, users...))
	e.logger.Info().
		Uint64("version", snap.Version).
		Int("interactions", len(snap.Interactions)).
		Int("users", snap.Graph.NumNodes()).
		Int("registered_users", len(users)).
		Int("catalog_items", len(items)).
		Msg("restored snapshot from store")
	return snap, nil
}

// Submit validates records, merges the valid ones into the accepted
// interactions and publishes a new snapshot. Invalid records are reported in
// the result and do not stop the batch. When no record is valid the current
// snapshot is kept and ErrNoValidInteractions is returned alongside the
// result.
func (e *Engine) Submit(ctx context.Context, records []graph.Interaction) (*SubmitResult, error) {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	batch := graph.Build(records)
	res := &SubmitResult{
		Accepted: len(records) - len(batch.Rejected),
		Rejected: batch.Rejected,
	}
	for _, r := range batch.Rejected {
		e.logger.Debug().Err(r).Str("user_id", r.Record.UserID).Msg("rejected interaction")
	}

	if res.Accepted == 0 {
		res.Snapshot = e.snapshot.Load()
		metrics.RecordSubmit(0, len(res.Rejected))
		return res, ErrNoValidInteractions
	}

	if e.store != nil {
		if err := e.store.Append(ctx, batch.Interactions); err != nil {
			return nil, fmt.Errorf("persist interactions: %w", err)
		}
	}

	var (
		merged []graph.Interaction
		users  []string
	)
	if prev := e.snapshot.Load(); prev != nil {
		merged = make([]graph.Interaction, 0, len(prev.Interactions)+len(batch.Interactions))
		merged = append(merged, prev.Interactions...)
		users = prev.userIDs
	}
	merged = append(merged, batch.Interactions...)

	res.Snapshot = e.publishSnapshot(graph.Build(merged, users...))
	metrics.RecordSubmit(res.Accepted, len(res.Rejected))

	e.logger.Info().
		Uint64("version", res.Snapshot.Version).
		Int("accepted", res.Accepted).
		Int("rejected", len(res.Rejected)).
		Int("users", res.Snapshot.Graph.NumNodes()).
		Int("edges", res.Snapshot.Graph.NumEdges()).
		Msg("snapshot built")
	return res, nil
}

// RegisterUser adds userID to the graph with an empty history and publishes a
// new snapshot. Every algorithm serves the user an empty list until the user
// has interactions. A user already in the snapshot yields ErrUserExists.
func (e *Engine) RegisterUser(ctx context.Context, userID string) (*Snapshot, error) {
	u := graph.User{UserID: userID}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	prev := e.snapshot.Load()
	if prev != nil && prev.HasUser(userID) {
		return prev, fmt.Errorf("%w: %q", ErrUserExists, userID)
	}
	if e.store != nil {
		if err := e.store.PutUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("persist user: %w", err)
		}
	}

	var (
		interactions []graph.Interaction
		users        []string
	)
	if prev != nil {
		interactions = prev.Interactions
		users = make([]string, 0, len(prev.userIDs)+1)
		users = append(users, prev.userIDs...)
	}
	users = append(users, userID)

	snap := e.publishSnapshot(graph.Build(interactions, users...))
	e.logger.Info().
		Uint64("version", snap.Version).
		Str("user_id", userID).
		Int("users", snap.Graph.NumNodes()).
		Msg("user registered")
	return snap, nil
}

// RegisterItem adds catalog metadata for an item. Items can be rated without
// being registered; registration only attaches metadata and does not change
// the snapshot. An id that already has metadata yields ErrItemExists.
func (e *Engine) RegisterItem(ctx context.Context, item graph.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	e.catalogMu.Lock()
	defer e.catalogMu.Unlock()

	if _, ok := e.catalog[item.ItemID]; ok {
		return fmt.Errorf("%w: %d", ErrItemExists, item.ItemID)
	}
	if e.store != nil {
		if err := e.store.PutItem(ctx, item); err != nil {
			return fmt.Errorf("persist item: %w", err)
		}
	}
	e.catalog[item.ItemID] = item

	e.logger.Debug().Int64("item_id", item.ItemID).Str("title", item.Title).Msg("item registered")
	return nil
}

// publishSnapshot must be called with submitMu held.
func (e *Engine) publishSnapshot(b *graph.BuildResult) *Snapshot {
	e.version++
	snap := NewSnapshot(e.version, b)
	e.snapshot.Store(snap)
	metrics.RecordSnapshot(snap.Version, snap.Graph.NumNodes(), snap.Graph.NumEdges())
	e.notify()
	return snap
}

// Recompute runs every active algorithm concurrently over snap (the latest
// snapshot when nil) and publishes the results. If ctx is cancelled before
// all algorithms finish nothing is published and ctx.Err() is returned. The
// recompute timeout is not a cancellation: algorithms that exceed it are
// recorded as failed. The returned slice holds the results that were
// actually published; a result older than the stored one is dropped.
func (e *Engine) Recompute(ctx context.Context, snap *Snapshot) ([]*Result, error) {
	if snap == nil {
		snap = e.snapshot.Load()
		if snap == nil {
			return nil, ErrNoSnapshot
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.config.RecomputeTimeout)
	defer cancel()

	algs := e.activeAlgorithms()
	results := make([]*Result, len(algs))

	var g errgroup.Group
	for i, alg := range algs {
		g.Go(func() error {
			results[i] = e.run(runCtx, alg, snap)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for _, r := range results {
			metrics.RecordAlgorithmRun(r.Algorithm, "cancelled", r.Duration)
		}
		e.logger.Debug().Uint64("version", snap.Version).Msg("recompute cancelled, results discarded")
		return nil, err
	}

	published := make([]*Result, 0, len(results))
	for _, r := range results {
		if !e.publish(r) {
			metrics.RecordAlgorithmRun(r.Algorithm, "stale", r.Duration)
			continue
		}
		metrics.RecordAlgorithmRun(r.Algorithm, string(r.Status), r.Duration)
		published = append(published, r)
	}
	return published, nil
}

// publish stores r unless a result for a newer snapshot is already stored.
func (e *Engine) publish(r *Result) bool {
	slot := e.results[r.Algorithm]
	for {
		cur := slot.Load()
		if cur != nil && cur.Snapshot.Version > r.Snapshot.Version {
			return false
		}
		if slot.CompareAndSwap(cur, r) {
			return true
		}
	}
}

// run executes one algorithm. Errors and panics become a failed Result.
func (e *Engine) run(ctx context.Context, alg Algorithm, snap *Snapshot) (res *Result) {
	id := alg.ID()
	start := time.Now()
	logger := e.logger.With().Str("algorithm", id).Uint64("version", snap.Version).Logger()

	defer func() {
		if p := recover(); p != nil {
			logger.Error().
				Interface("panic", p).
				Str("stack", string(debug.Stack())).
				Msg("algorithm panicked")
			res = e.failed(id, snap, fmt.Sprintf("panic: %v", p), start)
		}
	}()

	recs, summary, err := alg.Compute(ctx, snap, e.config)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("recompute timeout after %v: %w", e.config.RecomputeTimeout, err)
		}
		logger.Warn().Err(err).Msg("algorithm failed")
		return e.failed(id, snap, err.Error(), start)
	}

	res = &Result{
		Algorithm:  id,
		Snapshot:   snap,
		Status:     StatusOK,
		Map:        recs,
		Summary:    summary,
		Duration:   time.Since(start),
		ComputedAt: time.Now(),
	}
	if summary != nil {
		for _, w := range summary.Warnings {
			logger.Warn().Str("warning", w).Msg("algorithm completed with warning")
		}
	}
	logger.Debug().
		Dur("duration", res.Duration).
		Int("users", len(recs)).
		Msg("algorithm complete")
	return res
}

func (e *Engine) failed(id string, snap *Snapshot, reason string, start time.Time) *Result {
	return &Result{
		Algorithm:  id,
		Snapshot:   snap,
		Status:     StatusFailed,
		Reason:     reason,
		Duration:   time.Since(start),
		ComputedAt: time.Now(),
	}
}

// Result returns the latest stored result of an algorithm, or nil if it has
// not completed yet.
func (e *Engine) Result(algorithm string) (*Result, error) {
	slot, ok := e.results[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	return slot.Load(), nil
}

// Recommendation is one user's list together with the result it came from.
type Recommendation struct {
	Items  []int64
	Result *Result
}

// Lookup returns the user's recommendations from the latest completed result
// of algorithm. The user must be present in the current snapshot. A user
// added after that result was computed gets an empty list until the next
// recompute.
func (e *Engine) Lookup(userID, algorithm string) (*Recommendation, error) {
	slot, ok := e.results[algorithm]
	if !ok {
		metrics.RecordQuery(algorithm, "unknown_algorithm")
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	snap := e.snapshot.Load()
	if snap == nil || !snap.HasUser(userID) {
		metrics.RecordQuery(algorithm, "unknown_user")
		return nil, fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}

	res := slot.Load()
	if res == nil {
		metrics.RecordQuery(algorithm, "unavailable")
		return nil, fmt.Errorf("%w: %s has not been computed", ErrAlgorithmUnavailable, algorithm)
	}
	if !res.OK() {
		metrics.RecordQuery(algorithm, "unavailable")
		return nil, fmt.Errorf("%w: %s: %s", ErrAlgorithmUnavailable, algorithm, res.Reason)
	}

	items := make([]int64, len(res.Map[userID]))
	copy(items, res.Map[userID])
	metrics.RecordQuery(algorithm, "ok")
	return &Recommendation{Items: items, Result: res}, nil
}

// Recommendations returns the ranked item list for userID from algorithm.
func (e *Engine) Recommendations(userID, algorithm string) ([]int64, error) {
	rec, err := e.Lookup(userID, algorithm)
	if err != nil {
		return nil, err
	}
	return rec.Items, nil
}
