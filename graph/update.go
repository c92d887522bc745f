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
	"github.com/AleutianAI/localba/scene"
)

// UpdateResult summarizes one incremental graph update.
type UpdateResult struct {
	// NodesAdded is the number of view nodes created by this update.
	NodesAdded int

	// EdgesAdded is the number of match edges created by this update.
	EdgesAdded int

	// Seeded is true when the update found an empty graph and inserted
	// every currently posed view instead of just the frontier.
	Seeded bool
}

// UpdateWithMatches completes the graph with newly resected views and
// their match edges.
//
// Description:
//
//	Adds a node for every frontier view, then inserts a match edge for
//	every unconnected pair whose shared-landmark count reaches the
//	configured minimum. On the first call (empty graph) all currently
//	posed views are inserted instead, so the initial seed pair and the
//	frontier are connected in one pass.
//
//	Re-inserting an existing node or edge is a no-op. Pairs naming a
//	view without a node, and degenerate self pairs, are skipped with a
//	warning: a bad count entry must not abort the batch.
//
// Inputs:
//
//	shared - Shared-landmark count per view pair, canonical pairs.
//	frontier - The newly resected views.
//	posed - All currently posed views, used only to seed an empty graph.
//
// Outputs:
//
//	UpdateResult - Counts of nodes and edges inserted.
func (g *Graph) UpdateWithMatches(shared map[scene.Pair]int, frontier, posed []scene.ViewID) UpdateResult {
	var result UpdateResult

	toAdd := frontier
	if len(g.nodes) == 0 {
		toAdd = posed
		result.Seeded = true
	}
	for _, id := range toAdd {
		if g.AddView(id) {
			result.NodesAdded++
		}
	}

	for pair, count := range shared {
		if count < g.options.MinSharedLandmarks {
			continue
		}
		e, err := g.connect(pair.I, pair.J, EdgeKindMatch)
		if err != nil {
			g.options.Logger.Warn("skipping match edge",
				"pair", pair.String(),
				"error", err)
			continue
		}
		if e != nil {
			result.EdgesAdded++
		}
	}

	return result
}
