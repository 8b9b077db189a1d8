// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package config loads Affinigraph configuration with koanf v2.
//
// Sources are layered, later layers overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH or the DefaultConfigPaths search list)
//  3. Environment variables mapped explicitly in envTransformFunc
//
// The resulting Config is validated section by section before it is returned.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	Storage   StorageConfig   `koanf:"storage"`
	Events    EventsConfig    `koanf:"events"`
	Sink      SinkConfig      `koanf:"sink"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ThresholdsConfig holds the minimum score a link heuristic must reach for a
// pair to be predicted.
type ThresholdsConfig struct {
	CommonNeighbours       float64 `koanf:"cn"`
	Jaccard                float64 `koanf:"jaccard"`
	AdamicAdar             float64 `koanf:"adamic_adar"`
	PreferentialAttachment float64 `koanf:"preferential_attachment"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	TopN                 int              `koanf:"top_n"`
	SeedCount            int              `koanf:"seed_count"`
	DiffusionProbability float64          `koanf:"diffusion_probability"`
	Thresholds           ThresholdsConfig `koanf:"thresholds"`

	// RandomSeed seeds diffusion. 0 seeds from the clock on every run.
	RandomSeed int64 `koanf:"random_seed"`

	// LouvainWeighted uses shared-item counts as edge weights.
	LouvainWeighted bool `koanf:"louvain_weighted"`

	// Algorithms lists the enabled algorithm ids.
	Algorithms []string `koanf:"algorithms"`

	MinRecomputeInterval time.Duration `koanf:"min_recompute_interval"`
	RecomputeTimeout     time.Duration `koanf:"recompute_timeout"`
}

// StorageConfig controls the durable interaction log.
type StorageConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// EventsConfig controls the event bus.
type EventsConfig struct {
	// Transport is "memory" (watermill gochannel) or "nats".
	Transport            string        `koanf:"transport"`
	NATSURL              string        `koanf:"nats_url"`
	QueueGroup           string        `koanf:"queue_group"`
	SubscribersCount     int           `koanf:"subscribers_count"`
	BufferSize           int64         `koanf:"buffer_size"`
	InteractionsTopic    string        `koanf:"interactions_topic"`
	RecommendationsTopic string        `koanf:"recommendations_topic"`
	AckWaitTimeout       time.Duration `koanf:"ack_wait_timeout"`
}

// SinkConfig controls publication of computed recommendations to Redis.
type SinkConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"key_prefix"`
	TTL       time.Duration `koanf:"ttl"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
