// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/affinigraph/internal/diffusion"
	"github.com/tomtom215/affinigraph/internal/linkpred"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// TopN is the length of every recommendation list.
	TopN int `json:"top_n"`

	// Diffusion parameterises the Independent Cascade simulation.
	Diffusion diffusion.Config `json:"diffusion"`

	// Thresholds holds the link prediction minimum scores.
	Thresholds linkpred.Thresholds `json:"thresholds"`

	// RandomSeed seeds the diffusion random source on every run.
	// Zero seeds from the clock, so runs are not reproducible.
	RandomSeed int64 `json:"random_seed"`

	// LouvainWeighted uses shared-item counts as Louvain edge weights.
	LouvainWeighted bool `json:"louvain_weighted"`

	// Algorithms lists the algorithm ids that are computed and served.
	// Empty enables every registered algorithm.
	Algorithms []string `json:"algorithms"`

	// RecomputeTimeout bounds one recompute job.
	RecomputeTimeout time.Duration `json:"recompute_timeout"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TopN:             20,
		Diffusion:        diffusion.DefaultConfig(),
		Thresholds:       linkpred.DefaultThresholds(),
		LouvainWeighted:  true,
		Algorithms:       append([]string(nil), KnownAlgorithms...),
		RecomputeTimeout: 5 * time.Minute,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if c.Diffusion.Seeds <= 0 {
		return fmt.Errorf("seed_count must be positive, got %d", c.Diffusion.Seeds)
	}
	if c.Diffusion.Probability < 0 || c.Diffusion.Probability > 1 {
		return fmt.Errorf("diffusion_probability must be in [0,1], got %v", c.Diffusion.Probability)
	}
	th := c.Thresholds
	if th.CommonNeighbours < 0 || th.Jaccard < 0 || th.AdamicAdar < 0 || th.PreferentialAttachment < 0 {
		return fmt.Errorf("link prediction thresholds must be non-negative")
	}
	for _, id := range c.Algorithms {
		if !IsKnownAlgorithm(id) {
			return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, id)
		}
	}
	if c.RecomputeTimeout <= 0 {
		return fmt.Errorf("recompute_timeout must be positive, got %v", c.RecomputeTimeout)
	}
	return nil
}

// enabled reports whether id is listed in Algorithms.
func (c *Config) enabled(id string) bool {
	if len(c.Algorithms) == 0 {
		return true
	}
	for _, a := range c.Algorithms {
		if a == id {
			return true
		}
	}
	return false
}
