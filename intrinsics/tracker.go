// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package intrinsics tracks the temporal evolution of camera intrinsics
// across bundle adjustment passes.
//
// After every optimization the pipeline snapshots each intrinsic's focal
// length together with the number of poses contributing to it. A windowed
// standard deviation over that history, normalized by the full range ever
// observed, decides when an intrinsic has stabilized; once frozen, an
// intrinsic stays frozen for the lifetime of the run and the classifier
// holds it constant from then on.
//
// # Thread Safety
//
// Tracker is NOT safe for concurrent use. The scheduling cycle owns it
// exclusively and mutates it only between solver runs.
package intrinsics

import (
	"math"
	"sort"

	"github.com/AleutianAI/localba/scene"
)

// Sample is one focal-length snapshot, taken after an optimization pass.
type Sample struct {
	// PoseCount is the number of poses contributing to this intrinsic
	// at snapshot time.
	PoseCount int `json:"pose_count"`

	// Focal is the focal length in pixels.
	Focal float64 `json:"focal"`
}

// Tracker records the per-intrinsic focal-length history and the sticky
// frozen flags.
type Tracker struct {
	history map[scene.IntrinsicID][]Sample
	frozen  map[scene.IntrinsicID]bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		history: make(map[scene.IntrinsicID][]Sample),
		frozen:  make(map[scene.IntrinsicID]bool),
	}
}

// Record appends a snapshot to the intrinsic's history. O(1) amortized.
func (t *Tracker) Record(id scene.IntrinsicID, poseCount int, focal float64) {
	t.history[id] = append(t.history[id], Sample{PoseCount: poseCount, Focal: focal})
}

// History returns a copy of the intrinsic's snapshots, oldest first.
func (t *Tracker) History(id scene.IntrinsicID) []Sample {
	samples := t.history[id]
	if len(samples) == 0 {
		return nil
	}
	out := make([]Sample, len(samples))
	copy(out, samples)
	return out
}

// LastFocal returns the most recent focal length for the intrinsic.
func (t *Tracker) LastFocal(id scene.IntrinsicID) (float64, bool) {
	samples := t.history[id]
	if len(samples) == 0 {
		return 0, false
	}
	return samples[len(samples)-1].Focal, true
}

// IsFrozen reports whether the intrinsic has been marked converged.
func (t *Tracker) IsFrozen(id scene.IntrinsicID) bool {
	return t.frozen[id]
}

// Freeze marks the intrinsic converged. The flag is sticky; there is no
// way to unfreeze.
func (t *Tracker) Freeze(id scene.IntrinsicID) {
	t.frozen[id] = true
}

// Frozen returns a copy of the frozen-flag map, suitable for handing to
// the classifier.
func (t *Tracker) Frozen() map[scene.IntrinsicID]bool {
	out := make(map[scene.IntrinsicID]bool, len(t.frozen))
	for id, f := range t.frozen {
		if f {
			out[id] = true
		}
	}
	return out
}

// CheckConvergence decides whether the intrinsic's focal length has
// stabilized, and freezes it if so.
//
// Description:
//
//	Let H be the full focal-length history and S its last windowSize
//	entries. The intrinsic is converged when
//
//	    stddev(S) / (max(H) - min(H)) < stdevPercentageLimit
//
//	using the population standard deviation. A zero range means the
//	focal never moved at all, which counts as converged. With fewer
//	than windowSize snapshots (or a window smaller than 2) there is not
//	enough data and the answer is false.
//
//	A converged intrinsic is frozen immediately; later calls
//	short-circuit to true without recomputation.
//
// Inputs:
//
//	id - The intrinsic to check.
//	windowSize - Number of trailing snapshots the deviation is computed
//	over.
//	stdevPercentageLimit - Convergence threshold on the normalized
//	deviation.
//
// Outputs:
//
//	bool - True once the intrinsic is (or already was) frozen.
func (t *Tracker) CheckConvergence(id scene.IntrinsicID, windowSize int, stdevPercentageLimit float64) bool {
	if t.frozen[id] {
		return true
	}
	if windowSize < 2 {
		return false
	}

	samples := t.history[id]
	if len(samples) < windowSize {
		return false
	}

	focals := make([]float64, len(samples))
	for i, s := range samples {
		focals[i] = s.Focal
	}

	low, high := focals[0], focals[0]
	for _, f := range focals {
		low = math.Min(low, f)
		high = math.Max(high, f)
	}

	if high == low {
		t.frozen[id] = true
		return true
	}

	window := focals[len(focals)-windowSize:]
	normalized := populationStddev(window) / (high - low)
	if normalized < stdevPercentageLimit {
		t.frozen[id] = true
		return true
	}
	return false
}

// IDs returns every tracked intrinsic id in ascending order.
func (t *Tracker) IDs() []scene.IntrinsicID {
	ids := make([]scene.IntrinsicID, 0, len(t.history))
	for id := range t.history {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// populationStddev computes the population standard deviation. Defined as
// 0 for fewer than 2 values: with a single sample there is no variation
// to measure, and the caller treats 0 as insufficient data, not as
// convergence.
func populationStddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
