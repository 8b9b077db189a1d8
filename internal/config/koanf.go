// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/affinigraph/config.yaml",
	"/etc/affinigraph/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Recommend: RecommendConfig{
			TopN:                 20,
			SeedCount:            10,
			DiffusionProbability: 0.05,
			Thresholds: ThresholdsConfig{
				CommonNeighbours:       1,
				Jaccard:                0.1,
				AdamicAdar:             0.5,
				PreferentialAttachment: 1.0,
			},
			RandomSeed:      0,
			LouvainWeighted: true,
			Algorithms: []string{
				"girvan_newman",
				"louvain",
				"predict_links",
				"information_diffusion_ic",
				"frequency",
			},
			MinRecomputeInterval: 2 * time.Second,
			RecomputeTimeout:     5 * time.Minute,
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    "/data/interactions",
		},
		Events: EventsConfig{
			Transport:            "memory",
			NATSURL:              "nats://127.0.0.1:4222",
			QueueGroup:           "affinigraph",
			SubscribersCount:     1,
			BufferSize:           64,
			InteractionsTopic:    "interactions.batch",
			RecommendationsTopic: "recommendations.computed",
			AckWaitTimeout:       30 * time.Second,
		},
		Sink: SinkConfig{
			Enabled:   false,
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "affinigraph:rec",
			TTL:       24 * time.Hour,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in that order of precedence, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"recommend.algorithms",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"recommend_top_n":                  "recommend.top_n",
	"recommend_seed_count":             "recommend.seed_count",
	"recommend_diffusion_probability":  "recommend.diffusion_probability",
	"recommend_threshold_cn":           "recommend.thresholds.cn",
	"recommend_threshold_jaccard":      "recommend.thresholds.jaccard",
	"recommend_threshold_adamic_adar":  "recommend.thresholds.adamic_adar",
	"recommend_threshold_pref_attach":  "recommend.thresholds.preferential_attachment",
	"recommend_random_seed":            "recommend.random_seed",
	"recommend_louvain_weighted":       "recommend.louvain_weighted",
	"recommend_algorithms":             "recommend.algorithms",
	"recommend_min_recompute_interval": "recommend.min_recompute_interval",
	"recommend_recompute_timeout":      "recommend.recompute_timeout",

	"storage_enabled":     "storage.enabled",
	"storage_path":        "storage.path",
	"storage_sync_writes": "storage.sync_writes",

	"events_transport":             "events.transport",
	"nats_url":                     "events.nats_url",
	"nats_queue_group":             "events.queue_group",
	"nats_subscribers":             "events.subscribers_count",
	"events_buffer_size":           "events.buffer_size",
	"events_interactions_topic":    "events.interactions_topic",
	"events_recommendations_topic": "events.recommendations_topic",
	"nats_ack_wait_timeout":        "events.ack_wait_timeout",

	"redis_sink_enabled": "sink.enabled",
	"redis_addr":         "sink.addr",
	"redis_password":     "sink.password",
	"redis_db":           "sink.db",
	"redis_key_prefix":   "sink.key_prefix",
	"redis_ttl":          "sink.ttl",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
}

// envTransformFunc maps an environment variable name to its koanf path, or ""
// to drop it.
//
//	HTTP_PORT            -> server.port
//	RECOMMEND_TOP_N      -> recommend.top_n
//	REDIS_SINK_ENABLED   -> sink.enabled
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
