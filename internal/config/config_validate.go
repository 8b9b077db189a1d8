// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/affinigraph/internal/logging"
)

// KnownAlgorithms mirrors recommend.KnownAlgorithms so the config package
// stays free of engine imports. NewEngine rejects ids it does not know.
var KnownAlgorithms = []string{
	"girvan_newman",
	"louvain",
	"predict_links",
	"information_diffusion_ic",
	"frequency",
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateSink(); err != nil {
		return err
	}
	return c.validateSecurity()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := &c.Recommend
	if r.TopN < 1 {
		return fmt.Errorf("RECOMMEND_TOP_N must be at least 1, got %d", r.TopN)
	}
	if r.SeedCount < 1 {
		return fmt.Errorf("RECOMMEND_SEED_COUNT must be at least 1, got %d", r.SeedCount)
	}
	if r.DiffusionProbability < 0 || r.DiffusionProbability > 1 {
		return fmt.Errorf("RECOMMEND_DIFFUSION_PROBABILITY must be within [0,1], got %g", r.DiffusionProbability)
	}
	t := r.Thresholds
	if t.CommonNeighbours < 0 || t.Jaccard < 0 || t.AdamicAdar < 0 || t.PreferentialAttachment < 0 {
		return fmt.Errorf("recommend thresholds must not be negative")
	}
	if len(r.Algorithms) == 0 {
		return fmt.Errorf("RECOMMEND_ALGORITHMS must name at least one algorithm")
	}
	for _, name := range r.Algorithms {
		if !isKnownAlgorithm(name) {
			return fmt.Errorf("RECOMMEND_ALGORITHMS contains unknown algorithm %q (known: %s)",
				name, strings.Join(KnownAlgorithms, ", "))
		}
	}
	if r.MinRecomputeInterval < 0 {
		return fmt.Errorf("RECOMMEND_MIN_RECOMPUTE_INTERVAL must not be negative")
	}
	if r.RecomputeTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_RECOMPUTE_TIMEOUT must be positive")
	}
	return nil
}

func isKnownAlgorithm(name string) bool {
	for _, known := range KnownAlgorithms {
		if name == known {
			return true
		}
	}
	return false
}

func (c *Config) validateStorage() error {
	if c.Storage.Enabled && strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("STORAGE_PATH is required when STORAGE_ENABLED=true")
	}
	return nil
}

func (c *Config) validateEvents() error {
	e := &c.Events
	switch e.Transport {
	case "memory":
	case "nats":
		if e.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when EVENTS_TRANSPORT=nats")
		}
		if !strings.HasPrefix(e.NATSURL, "nats://") && !strings.HasPrefix(e.NATSURL, "tls://") {
			return fmt.Errorf("NATS_URL must use nats:// or tls://, got %q", e.NATSURL)
		}
	default:
		return fmt.Errorf("EVENTS_TRANSPORT must be memory or nats, got %q", e.Transport)
	}
	if e.InteractionsTopic == "" || e.RecommendationsTopic == "" {
		return fmt.Errorf("event topics must not be empty")
	}
	if e.InteractionsTopic == e.RecommendationsTopic {
		return fmt.Errorf("interactions and recommendations topics must differ")
	}
	if e.SubscribersCount < 1 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be at least 1")
	}
	return nil
}

func (c *Config) validateSink() error {
	if !c.Sink.Enabled {
		return nil
	}
	if c.Sink.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_SINK_ENABLED=true")
	}
	if c.Sink.DB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative")
	}
	if c.Sink.TTL < 0 {
		return fmt.Errorf("REDIS_TTL must not be negative")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}
