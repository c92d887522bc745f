// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph maintains the view-connectivity graph used to schedule
// local bundle adjustment.
//
// Nodes are registered camera views. A match edge connects two views that
// jointly observe at least a minimum number of landmarks; a coupling edge
// temporarily connects views sharing an intrinsic so that graph distance
// also reflects shared calibration. Distances from the newly resected
// views (the frontier) are computed with a multi-source breadth-first
// search and drive the refined/constant/ignored classification in the
// sched package.
//
// # Lifecycle
//
// A Graph lives for the whole incremental reconstruction. Each scheduling
// cycle mutates it in a fixed order:
//
//  1. UpdateWithMatches() adds the frontier views and new match edges
//  2. AddIntrinsicCoupling() inserts temporary coupling edges
//  3. ComputeDistances() runs the BFS
//  4. RemoveIntrinsicCoupling() restores the pure match-edge form
//
// WithIntrinsicCoupling wraps steps 2-4 and guarantees the teardown runs
// on every exit path. Coupling edges must never survive a cycle.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. The scheduling cycle is
// single-threaded and batch-oriented; the caller must not interleave two
// cycles against the same instance.
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrViewNotFound is returned when an operation names a view that has
	// no node in the graph. Batch operations still apply to the views
	// they do know about.
	ErrViewNotFound = errors.New("view not found in distance graph")

	// ErrSelfEdge is returned when an edge would connect a view to
	// itself. Self edges are always a caller bug; they are rejected and
	// logged but never fatal.
	ErrSelfEdge = errors.New("edge endpoints are the same view")

	// ErrComputeCancelled is returned when a distance computation is
	// cancelled via context before visiting every reachable node. The
	// partial result is discarded: acting on incomplete distances would
	// silently degrade the schedule.
	ErrComputeCancelled = errors.New("distance computation cancelled")
)
