// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package store keeps the accepted interaction log and the registered
// user and item catalog in BadgerDB so the engine can rebuild its snapshot
// after a restart.
//
// Every Append is one batch written in a single transaction under a
// sequence-ordered key, so Load replays batches in the order they were
// accepted. Replaying through graph.Build yields the same deduplicated
// interactions the engine held before the restart.
//
// Registered users live under "user:<id>" with an empty value and item
// metadata under "item:<big-endian id>" as JSON. Compact leaves both alone.
package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/metrics"
)

// Errors
var (
	// ErrStoreClosed is returned after Close.
	ErrStoreClosed = errors.New("interaction store is closed")
)

const (
	prefixBatch = "batch:"
	prefixUser  = "user:"
	prefixItem  = "item:"
	sequenceKey = "seq:batch"

	// sequenceBandwidth is how many batch ids badger leases at a time.
	sequenceBandwidth = 100
)

// Config configures the interaction store.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// InMemory keeps everything in memory (tests).
	InMemory bool

	// CloseTimeout bounds Close. Zero means 30s.
	CloseTimeout time.Duration
}

// BadgerStore is the BadgerDB-backed interaction log.
type BadgerStore struct {
	db     *badger.DB
	seq    *badger.Sequence
	config Config
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool

	// writeMu keeps Append out of a running Compact.
	writeMu sync.Mutex
}

// Open opens (or creates) the interaction log.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("store path is required")
		}
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = cfg.SyncWrites
	}
	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open batch sequence: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		seq:    seq,
		config: cfg,
		logger: logger.With().Str("component", "store").Logger(),
	}
	batches, err := s.Batches()
	if err != nil {
		_ = seq.Release()
		_ = db.Close()
		return nil, fmt.Errorf("count batches: %w", err)
	}
	metrics.SetStoreBatches(batches)

	s.logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Int("batches", batches).
		Msg("interaction store opened")
	return s, nil
}

func batchKey(id uint64) []byte {
	key := make([]byte, len(prefixBatch)+8)
	copy(key, prefixBatch)
	binary.BigEndian.PutUint64(key[len(prefixBatch):], id)
	return key
}

func userKey(id string) []byte {
	return []byte(prefixUser + id)
}

func itemKey(id int64) []byte {
	key := make([]byte, len(prefixItem)+8)
	copy(key, prefixItem)
	binary.BigEndian.PutUint64(key[len(prefixItem):], uint64(id))
	return key
}

func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Append writes interactions as one batch.
func (s *BadgerStore) Append(ctx context.Context, interactions []graph.Interaction) (err error) {
	defer func() { metrics.RecordStoreOperation("append", err) }()

	if err := s.checkOpen(); err != nil {
		return err
	}
	if len(interactions) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(interactions)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next batch id: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(batchKey(id), data)
	})
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	metrics.StoreBatches.Inc()
	return nil
}

// Load returns every stored interaction in append order.
func (s *BadgerStore) Load(ctx context.Context) (out []graph.Interaction, err error) {
	defer func() { metrics.RecordStoreOperation("load", err) }()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixBatch)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var batch []graph.Interaction
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &batch)
			}); err != nil {
				return fmt.Errorf("decode batch %x: %w", it.Item().Key(), err)
			}
			out = append(out, batch...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return out, nil
}

// Batches returns the number of stored batches. It backs the
// affinigraph_store_batches gauge.
func (s *BadgerStore) Batches() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixBatch)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Compact replaces the log with a single batch holding the deduplicated
// interactions, so replay cost stays proportional to distinct (user, item)
// pairs. It returns the number of interactions kept.
func (s *BadgerStore) Compact(ctx context.Context) (kept int, err error) {
	defer func() { metrics.RecordStoreOperation("compact", err) }()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	all, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	deduped := graph.Build(all).Interactions

	data, err := json.Marshal(deduped)
	if err != nil {
		return 0, fmt.Errorf("marshal compacted batch: %w", err)
	}
	id, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next batch id: %w", err)
	}

	// The compacted batch is committed before anything is deleted. An
	// interrupted compaction leaves old and compacted batches side by side,
	// which replays to the same interactions.
	if len(deduped) > 0 {
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(batchKey(id), data)
		})
		if err != nil {
			return 0, fmt.Errorf("write compacted batch: %w", err)
		}
	}

	removed, err := s.deleteBatchesBelow(id)
	if err != nil {
		return 0, err
	}
	batches, err := s.Batches()
	if err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	metrics.SetStoreBatches(batches)

	s.logger.Info().
		Int("before", len(all)).
		Int("after", len(deduped)).
		Int("batches_removed", removed).
		Msg("interaction log compacted")
	return len(deduped), nil
}

// deleteBatchesBelow removes every batch whose id is lower than id.
func (s *BadgerStore) deleteBatchesBelow(id uint64) (int, error) {
	limit := batchKey(id)

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	removed := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixBatch)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if bytes.Compare(key, limit) >= 0 {
				break
			}
			if err := wb.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("collect batches: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("delete compacted batches: %w", err)
	}
	return removed, nil
}

// PutUser registers userID. Registering an existing user is a no-op.
func (s *BadgerStore) PutUser(ctx context.Context, userID string) (err error) {
	defer func() { metrics.RecordStoreOperation("put_user", err) }()

	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(userID), nil)
	})
	if err != nil {
		return fmt.Errorf("write user %q: %w", userID, err)
	}
	return nil
}

// LoadUsers returns every registered user id in key order.
func (s *BadgerStore) LoadUsers(ctx context.Context) (out []string, err error) {
	defer func() { metrics.RecordStoreOperation("load_users", err) }()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixUser)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			out = append(out, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

// PutItem stores item metadata, replacing any earlier entry for the id.
func (s *BadgerStore) PutItem(ctx context.Context, item graph.Item) (err error) {
	defer func() { metrics.RecordStoreOperation("put_item", err) }()

	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(item.ItemID), data)
	})
	if err != nil {
		return fmt.Errorf("write item %d: %w", item.ItemID, err)
	}
	return nil
}

// LoadItems returns every stored item in key order.
func (s *BadgerStore) LoadItems(ctx context.Context) (out []graph.Item, err error) {
	defer func() { metrics.RecordStoreOperation("load_items", err) }()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixItem)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var item graph.Item
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			}); err != nil {
				return fmt.Errorf("decode item %x: %w", it.Item().Key(), err)
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return out, nil
}

// RunGC reclaims value log space.
func (s *BadgerStore) RunGC() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.config.InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close releases the sequence and closes the database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timeout := s.config.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	s.mu.Unlock()

	if err := s.seq.Release(); err != nil {
		s.logger.Warn().Err(err).Msg("release batch sequence")
	}

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		s.logger.Info().Msg("interaction store closed")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}
