// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// pipelineChunk bounds the number of lists per MULTI/EXEC.
const pipelineChunk = 500

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisWriter writes lists with go-redis.
type RedisWriter struct {
	client *redis.Client
}

// NewRedisWriter connects and pings Redis.
func NewRedisWriter(ctx context.Context, cfg RedisConfig) (*RedisWriter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return &RedisWriter{client: client}, nil
}

// ReplaceLists implements Writer.
func (w *RedisWriter) ReplaceLists(ctx context.Context, lists map[string][]int64, ttl time.Duration) error {
	keys := sortedKeys(lists)
	for start := 0; start < len(keys); start += pipelineChunk {
		end := min(start+pipelineChunk, len(keys))
		_, err := w.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range keys[start:end] {
				pipe.Del(ctx, key)
				items := lists[key]
				if len(items) == 0 {
					continue
				}
				pipe.RPush(ctx, key, itemArgs(items)...)
				if ttl > 0 {
					pipe.Expire(ctx, key, ttl)
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("replace lists %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// SetMeta implements Writer.
func (w *RedisWriter) SetMeta(ctx context.Context, key string, meta Meta) error {
	return w.client.HSet(ctx, key,
		"snapshot_version", strconv.FormatUint(meta.SnapshotVersion, 10),
		"computed_at", meta.ComputedAt.UTC().Format(time.RFC3339Nano),
		"users", strconv.Itoa(meta.Users),
	).Err()
}

// Ping checks the connection.
func (w *RedisWriter) Ping(ctx context.Context) error {
	return w.client.Ping(ctx).Err()
}

// Close closes the client.
func (w *RedisWriter) Close() error {
	return w.client.Close()
}
