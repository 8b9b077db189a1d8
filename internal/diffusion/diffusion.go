// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package diffusion simulates Independent Cascade spreading over the
// affinity graph.
//
// All randomness comes from the *rand.Rand passed in, so a cascade is fully
// reproducible from its seed regardless of what else runs concurrently.
package diffusion

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/tomtom215/affinigraph/internal/graph"
)

// ErrInsufficientNodes is returned together with a valid cascade when the
// graph has fewer nodes than requested seeds. Every node is then a seed.
var ErrInsufficientNodes = errors.New("insufficient nodes for requested seed count")

// Config parameterises a simulation.
type Config struct {
	Seeds       int     `json:"seed_count"`
	Probability float64 `json:"probability"`
}

// DefaultConfig returns 10 seeds with activation probability 0.05.
func DefaultConfig() Config {
	return Config{Seeds: 10, Probability: 0.05}
}

// NewRand returns a generator for seed; 0 seeds from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)) //nolint:gosec // simulation, not security
}

// Cascade is the outcome of one simulation.
type Cascade struct {
	// Rounds[0] holds the seeds; Rounds[r] the nodes first activated in round r.
	// Every round is in ascending node order and no round is empty.
	Rounds [][]int

	active []bool
	g      *graph.AffinityGraph
}

// Seeds returns the seed node indices.
func (c *Cascade) Seeds() []int {
	if len(c.Rounds) == 0 {
		return nil
	}
	return c.Rounds[0]
}

// Active reports whether node i was infected.
func (c *Cascade) Active(i int) bool {
	return c.active[i]
}

// ActiveAfter returns the infected node indices after round r, ascending.
func (c *Cascade) ActiveAfter(r int) []int {
	var out []int
	for i := 0; i <= r && i < len(c.Rounds); i++ {
		out = append(out, c.Rounds[i]...)
	}
	sort.Ints(out)
	return out
}

// Infected returns the infected user ids in node order.
func (c *Cascade) Infected() []string {
	out := make([]string, 0)
	for i, on := range c.active {
		if on {
			out = append(out, c.g.User(i))
		}
	}
	return out
}

// Simulate runs the cascade. Seeds are drawn uniformly without replacement
// from the node list. In each round every node activated in the previous
// round gets one attempt, with probability cfg.Probability, at each neighbour
// that is still inactive; neighbours are tried in ascending order. The run
// ends after the first round that activates nobody.
func Simulate(ctx context.Context, g *graph.AffinityGraph, cfg Config, rng *rand.Rand) (*Cascade, error) {
	n := g.NumNodes()
	c := &Cascade{active: make([]bool, n), g: g}

	var insufficient error
	k := cfg.Seeds
	if n == 0 || k > n {
		k = n
		insufficient = ErrInsufficientNodes
	}
	if k < 0 {
		k = 0
	}
	if n == 0 {
		return c, insufficient
	}

	seeds := rng.Perm(n)[:k]
	sort.Ints(seeds)
	for _, s := range seeds {
		c.active[s] = true
	}
	c.Rounds = append(c.Rounds, seeds)

	frontier := seeds
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next []int
		for _, u := range frontier {
			for _, v := range g.Neighbors(u) {
				if c.active[v] {
					continue
				}
				if rng.Float64() < cfg.Probability {
					c.active[v] = true
					next = append(next, v)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		sort.Ints(next)
		c.Rounds = append(c.Rounds, next)
		frontier = next
	}

	return c, insufficient
}
