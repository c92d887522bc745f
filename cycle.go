// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package localba

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AleutianAI/localba/graph"
	"github.com/AleutianAI/localba/intrinsics"
	"github.com/AleutianAI/localba/scene"
	"github.com/AleutianAI/localba/sched"
	"github.com/AleutianAI/localba/telemetry"
)

// CycleResult is everything one scheduling pass produced.
type CycleResult struct {
	// Update summarizes the graph update.
	Update graph.UpdateResult

	// CouplingEdges is the number of temporary intrinsic-coupling edges
	// that participated in the distance computation.
	CouplingEdges int

	// ViewDistances is the per-view BFS output.
	ViewDistances graph.DistanceMap

	// PoseDistances is the per-pose distance: the minimum over the
	// pose's views, graph.Unreachable if none of them is reachable.
	PoseDistances map[scene.PoseID]int

	// States holds the classification handed to the solver.
	States sched.Result

	// PoseCounts, IntrinsicCounts, and LandmarkCounts tally the states
	// per entity kind, for the statistics report.
	PoseCounts      sched.StateCounts
	IntrinsicCounts sched.StateCounts
	LandmarkCounts  sched.StateCounts
}

// RunCycle executes one scheduling pass: graph update, distance
// computation, and state classification.
//
// Description:
//
//	The graph is updated with the frontier views and their match edges,
//	then distances are computed with temporary intrinsic-coupling edges
//	in place, and finally every pose, intrinsic, and landmark of the
//	snapshot is classified. On the first cycle (empty graph) the whole
//	posed set becomes the frontier, matching the seeded graph.
//
//	The solver runs outside this call; the caller is expected to invoke
//	SaveAdjustmentTime and RecordIntrinsics afterwards to complete the
//	cycle's bookkeeping.
//
// Inputs:
//
//	ctx - Context for cancellation of the distance computation.
//	recon - The pipeline's current reconstruction snapshot.
//	frontier - The views resected since the previous cycle.
//	shared - Shared-landmark counts per view pair, canonical pairs.
//
// Outputs:
//
//	*CycleResult - Distances, states, and per-kind tallies.
//	error - Non-nil on an invalid snapshot or cancelled computation. The
//	graph keeps the nodes and match edges added before the failure;
//	coupling edges never survive an error.
func (e *Engine) RunCycle(ctx context.Context, recon *scene.Reconstruction, frontier []scene.ViewID, shared map[scene.Pair]int) (*CycleResult, error) {
	if err := recon.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reconstruction: %w", err)
	}

	start := time.Now()
	e.timer.Restart()

	result := &CycleResult{}
	result.Update = e.graph.UpdateWithMatches(shared, frontier, recon.PosedViews())
	e.timer.Save(telemetry.PhaseGraphUpdate)
	e.metrics.GraphNodes.Record(ctx, int64(e.graph.NodeCount()))
	e.metrics.GraphMatchEdges.Record(ctx, int64(e.graph.MatchEdgeCount()))

	seeds := frontier
	if result.Update.Seeded {
		seeds = recon.PosedViews()
	}

	err := e.graph.WithIntrinsicCoupling(recon.ViewsByIntrinsic(), func(added int) error {
		result.CouplingEdges = added
		distances, err := e.graph.ComputeDistances(ctx, seeds)
		if err != nil {
			return err
		}
		result.ViewDistances = distances
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.PoseDistances = poseDistances(recon, result.ViewDistances)
	e.timer.Save(telemetry.PhaseComputeDistances)

	result.States = sched.Classify(sched.Input{
		PoseDistances:     result.PoseDistances,
		IntrinsicOfPose:   intrinsicOfPose(recon),
		FrozenIntrinsics:  e.tracker.Frozen(),
		LandmarkObservers: recon.LandmarkObservers(),
	}, sched.WithDistanceLimit(e.options.DistanceLimit))
	result.PoseCounts, result.IntrinsicCounts, result.LandmarkCounts = result.States.Counts()
	e.timer.Save(telemetry.PhaseConvertStates)

	e.metrics.CyclesTotal.Add(ctx, 1)
	e.metrics.CycleDuration.Record(ctx, time.Since(start).Seconds())
	e.metrics.RecordStates(ctx, "pose",
		result.PoseCounts.Refined, result.PoseCounts.Constant, result.PoseCounts.Ignored)
	e.metrics.RecordStates(ctx, "intrinsic",
		result.IntrinsicCounts.Refined, result.IntrinsicCounts.Constant, result.IntrinsicCounts.Ignored)
	e.metrics.RecordStates(ctx, "landmark",
		result.LandmarkCounts.Refined, result.LandmarkCounts.Constant, result.LandmarkCounts.Ignored)
	for _, d := range result.ViewDistances {
		if d >= 0 {
			e.metrics.ViewsAtDistance.Record(ctx, int64(d))
		}
	}

	e.options.Logger.Info("scheduling cycle complete",
		"frontier", len(frontier),
		"nodes", e.graph.NodeCount(),
		"match_edges", e.graph.MatchEdgeCount(),
		"coupling_edges", result.CouplingEdges,
		"refined_poses", result.PoseCounts.Refined,
		"constant_poses", result.PoseCounts.Constant,
		"ignored_poses", result.PoseCounts.Ignored,
		"refined_landmarks", result.LandmarkCounts.Refined)

	return result, nil
}

// SaveAdjustmentTime charges the time since RunCycle returned to the
// adjustment phase. Call it once the external solver finishes.
func (e *Engine) SaveAdjustmentTime() {
	e.timer.Save(telemetry.PhaseAdjustment)
}

// RecordIntrinsics snapshots every intrinsic of the post-solver
// reconstruction and runs the convergence check.
//
// Description:
//
//	Each intrinsic's focal length is appended to its history together
//	with the number of poses currently contributing to it; frozen
//	intrinsics keep accumulating history for the exported tables. An
//	intrinsic whose normalized focal deviation drops below the limit is
//	frozen, permanently.
//
// Inputs:
//
//	recon - The reconstruction after the solver pass.
//
// Outputs:
//
//	[]scene.IntrinsicID - Intrinsics newly frozen by this call,
//	ascending.
//	error - Non-nil if the snapshot store rejects a write. The in-memory
//	tracker is updated regardless, so the cycle can continue.
func (e *Engine) RecordIntrinsics(recon *scene.Reconstruction) ([]scene.IntrinsicID, error) {
	ctx := context.Background()

	ids := make([]scene.IntrinsicID, 0, len(recon.FocalLengths))
	for id := range recon.FocalLengths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var frozen []scene.IntrinsicID
	var storeErr error
	for _, id := range ids {
		poseCount := len(recon.PosesOfIntrinsic(id))
		focal := recon.FocalLengths[id]
		e.tracker.Record(id, poseCount, focal)
		if e.options.Store != nil {
			if err := e.options.Store.Append(id, intrinsics.Sample{PoseCount: poseCount, Focal: focal}); err != nil && storeErr == nil {
				storeErr = err
			}
		}

		if e.tracker.IsFrozen(id) {
			continue
		}
		if e.tracker.CheckConvergence(id, e.options.WindowSize, e.options.StdevPercentageLimit) {
			frozen = append(frozen, id)
			e.metrics.FrozenIntrinsicsTotal.Add(ctx, 1)
			e.options.Logger.Info("intrinsic converged",
				"intrinsic", id,
				"focal", focal,
				"pose_count", poseCount)
			if e.options.Store != nil {
				if err := e.options.Store.MarkFrozen(id); err != nil && storeErr == nil {
					storeErr = err
				}
			}
		}
	}
	e.timer.Save(telemetry.PhaseSaveIntrinsics)

	return frozen, storeErr
}

// ExportHistory writes the per-intrinsic focal-length tables to dir.
func (e *Engine) ExportHistory(dir string) error {
	return e.tracker.ExportHistory(dir)
}

// poseDistances folds the per-view distances to per-pose: the minimum
// over the pose's views, Unreachable when every view is unreachable.
func poseDistances(recon *scene.Reconstruction, views graph.DistanceMap) map[scene.PoseID]int {
	out := make(map[scene.PoseID]int)
	for poseID, poseViews := range recon.ViewsOfPose() {
		best := graph.Unreachable
		for _, v := range poseViews {
			d, ok := views[v]
			if !ok || d == graph.Unreachable {
				continue
			}
			if best == graph.Unreachable || d < best {
				best = d
			}
		}
		out[poseID] = best
	}
	return out
}

// intrinsicOfPose maps each pose to the intrinsic its views use. With
// rigs of mixed intrinsics the lowest view id wins; the classifier only
// needs a representative.
func intrinsicOfPose(recon *scene.Reconstruction) map[scene.PoseID]scene.IntrinsicID {
	out := make(map[scene.PoseID]scene.IntrinsicID)
	for poseID, poseViews := range recon.ViewsOfPose() {
		for _, v := range poseViews {
			if id, ok := recon.Intrinsics[v]; ok {
				out[poseID] = id
				break
			}
		}
	}
	return out
}
