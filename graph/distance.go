// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/AleutianAI/localba/scene"
)

const (
	// Unreachable marks a view in a different connected component than
	// the frontier.
	Unreachable = -1

	// contextCheckInterval is how often to check context during the BFS.
	contextCheckInterval = 100
)

// DistanceMap holds the graph distance from the frontier for every view
// in the graph. Frontier members have distance 0; views the frontier
// cannot reach have Unreachable.
type DistanceMap map[scene.ViewID]int

// Histogram returns the number of views at each distance.
//
// Unreachable views are counted under the Unreachable key. The histogram
// is the per-cycle diagnostic exported alongside the timing report.
func (m DistanceMap) Histogram() map[int]int {
	hist := make(map[int]int)
	for _, d := range m {
		hist[d]++
	}
	return hist
}

// Reachable returns the number of views with a non-negative distance.
func (m DistanceMap) Reachable() int {
	count := 0
	for _, d := range m {
		if d >= 0 {
			count++
		}
	}
	return count
}

// ComputeDistances runs a multi-source BFS from the frontier views.
//
// Description:
//
//	All frontier views present in the graph are seeded at distance 0
//	simultaneously; every hop adds 1. The search traverses whatever
//	edges are currently in the graph, so callers decide whether
//	coupling edges participate by computing inside or outside
//	WithIntrinsicCoupling. Runs in O(V+E). Distances are a pure
//	function of topology and frontier: traversal order never changes
//	the result.
//
//	Frontier ids without a node are skipped with a warning. An empty
//	graph, or a frontier with no known member, yields a map that is
//	empty or all-Unreachable; both are valid steady states, not errors.
//
// Inputs:
//
//	ctx - Context for cancellation, checked up front and every 100
//	dequeues.
//	frontier - The newly resected views.
//
// Outputs:
//
//	DistanceMap - Distance for every view in the graph.
//	error - ErrComputeCancelled (wrapping the context error) if ctx
//	expired mid-search. Partial distances are never returned.
func (g *Graph) ComputeDistances(ctx context.Context, frontier []scene.ViewID) (DistanceMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComputeCancelled, err)
	}

	distances := make(DistanceMap, len(g.nodes))
	for id := range g.nodes {
		distances[id] = Unreachable
	}

	// Sorted seed order keeps logs and traversal deterministic even
	// though the resulting distances do not depend on it.
	seeds := make([]scene.ViewID, 0, len(frontier))
	for _, id := range frontier {
		if !g.HasView(id) {
			g.options.Logger.Warn("frontier view not in graph", "view", id)
			continue
		}
		seeds = append(seeds, id)
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i] < seeds[j] })

	queue := make([]scene.ViewID, 0, len(seeds))
	for _, id := range seeds {
		if distances[id] == 0 {
			continue // duplicate frontier entry
		}
		distances[id] = 0
		queue = append(queue, id)
	}

	checkCounter := 0
	for len(queue) > 0 {
		checkCounter++
		if checkCounter%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrComputeCancelled, err)
			}
		}

		current := queue[0]
		queue = queue[1:]
		next := distances[current] + 1

		for other := range g.nodes[current].Neighbors {
			if distances[other] != Unreachable {
				continue
			}
			distances[other] = next
			queue = append(queue, other)
		}
	}

	return distances, nil
}
