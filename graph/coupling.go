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
	"sort"

	"github.com/AleutianAI/localba/scene"
)

// AddIntrinsicCoupling inserts temporary edges between all views sharing
// an intrinsic.
//
// Description:
//
//	For each intrinsic with at least two views in the graph, every pair
//	of those views is connected by a coupling edge. Pairs already
//	connected (by a match edge or an earlier coupling edge) are skipped,
//	so removal can restore the exact prior edge set. Views without a
//	node are skipped with a warning.
//
//	The inserted edges are recorded so RemoveIntrinsicCoupling can take
//	down exactly this set. Calling AddIntrinsicCoupling again without
//	removing first extends the recorded set.
//
// Inputs:
//
//	viewsByIntrinsic - Posed views grouped by the intrinsic they share.
//
// Outputs:
//
//	int - Number of coupling edges inserted.
func (g *Graph) AddIntrinsicCoupling(viewsByIntrinsic map[scene.IntrinsicID][]scene.ViewID) int {
	intrinsicIDs := make([]scene.IntrinsicID, 0, len(viewsByIntrinsic))
	for id := range viewsByIntrinsic {
		intrinsicIDs = append(intrinsicIDs, id)
	}
	sort.Slice(intrinsicIDs, func(i, j int) bool { return intrinsicIDs[i] < intrinsicIDs[j] })

	added := 0
	for _, intrinsicID := range intrinsicIDs {
		views := make([]scene.ViewID, 0, len(viewsByIntrinsic[intrinsicID]))
		for _, v := range viewsByIntrinsic[intrinsicID] {
			if !g.HasView(v) {
				g.options.Logger.Warn("coupling skips view without node",
					"intrinsic", intrinsicID,
					"view", v)
				continue
			}
			views = append(views, v)
		}
		if len(views) < 2 {
			continue
		}
		sort.Slice(views, func(i, j int) bool { return views[i] < views[j] })

		for i := 0; i < len(views); i++ {
			for j := i + 1; j < len(views); j++ {
				e, err := g.connect(views[i], views[j], EdgeKindCoupling)
				if err != nil {
					g.options.Logger.Warn("skipping coupling edge",
						"intrinsic", intrinsicID,
						"pair", scene.MakePair(views[i], views[j]).String(),
						"error", err)
					continue
				}
				if e == nil {
					continue // already connected
				}
				g.coupling = append(g.coupling, e)
				added++
			}
		}
	}
	return added
}

// RemoveIntrinsicCoupling removes exactly the coupling edges inserted by
// the previous AddIntrinsicCoupling call.
//
// Description:
//
//	Idempotent and safe to call when no coupling edges exist. Edges
//	whose endpoints were removed in the meantime are already gone and
//	are simply dropped from the record.
//
// Outputs:
//
//	int - Number of edges actually removed.
func (g *Graph) RemoveIntrinsicCoupling() int {
	removed := 0
	for _, e := range g.coupling {
		if g.disconnect(e) {
			removed++
		}
	}
	g.coupling = g.coupling[:0]
	return removed
}

// WithIntrinsicCoupling runs fn with coupling edges in place and
// guarantees their removal on every exit path.
//
// Description:
//
//	The scoped form is the only coupling API the scheduling cycle should
//	use: an early return or error inside fn cannot leak coupling edges
//	into the next cycle.
//
// Inputs:
//
//	viewsByIntrinsic - Posed views grouped by intrinsic.
//	fn - Callback executed while the graph is coupled.
//
// Outputs:
//
//	error - The error returned by fn, unchanged.
func (g *Graph) WithIntrinsicCoupling(viewsByIntrinsic map[scene.IntrinsicID][]scene.ViewID, fn func(added int) error) error {
	added := g.AddIntrinsicCoupling(viewsByIntrinsic)
	defer g.RemoveIntrinsicCoupling()
	return fn(added)
}
