// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sched

import (
	"github.com/AleutianAI/localba/graph"
	"github.com/AleutianAI/localba/scene"
)

// DefaultDistanceLimit is the default refinement window: poses within
// this graph distance of the frontier are refined.
const DefaultDistanceLimit = 1

// Options configures the classification policy. The distance thresholds
// are configuration, never hardcoded at call sites.
type Options struct {
	// DistanceLimit is the largest graph distance still refined.
	// Reachable poses beyond it are constant; unreachable poses are
	// ignored. Default: 1
	DistanceLimit int
}

// DefaultOptions returns the default classification policy.
func DefaultOptions() Options {
	return Options{
		DistanceLimit: DefaultDistanceLimit,
	}
}

// Option is a functional option for configuring classification.
type Option func(*Options)

// WithDistanceLimit sets the refinement window. Negative values keep the
// default.
func WithDistanceLimit(d int) Option {
	return func(o *Options) {
		if d >= 0 {
			o.DistanceLimit = d
		}
	}
}

// Input bundles everything classification depends on. All fields are read
// only; Classify never mutates them.
type Input struct {
	// PoseDistances is the graph distance of every pose from the
	// frontier, graph.Unreachable for disconnected poses.
	PoseDistances map[scene.PoseID]int

	// IntrinsicOfPose maps each pose to the intrinsic its views use.
	IntrinsicOfPose map[scene.PoseID]scene.IntrinsicID

	// FrozenIntrinsics holds the sticky convergence flags from the
	// intrinsics tracker.
	FrozenIntrinsics map[scene.IntrinsicID]bool

	// LandmarkObservers maps each landmark to the poses observing it.
	LandmarkObservers map[scene.LandmarkID][]scene.PoseID
}

// Result holds the three state maps handed to the external solver.
// Assigned fresh on every classification pass, never partially updated.
type Result struct {
	Poses      map[scene.PoseID]State
	Intrinsics map[scene.IntrinsicID]State
	Landmarks  map[scene.LandmarkID]State
}

// StateCounts tallies one entity kind per state, for the statistics
// reporter.
type StateCounts struct {
	Refined  int
	Constant int
	Ignored  int
}

// Counts returns per-entity tallies of the three states.
func (r *Result) Counts() (poses, intrinsics, landmarks StateCounts) {
	tally := func(s State, c *StateCounts) {
		switch s {
		case StateRefined:
			c.Refined++
		case StateConstant:
			c.Constant++
		default:
			c.Ignored++
		}
	}
	for _, s := range r.Poses {
		tally(s, &poses)
	}
	for _, s := range r.Intrinsics {
		tally(s, &intrinsics)
	}
	for _, s := range r.Landmarks {
		tally(s, &landmarks)
	}
	return poses, intrinsics, landmarks
}

// Classify maps graph distances and frozen flags to participation states.
//
// Description:
//
//	Pure function: the same input always yields the same result, and
//	two consecutive runs over an unchanged input are identical.
//
//	Policy:
//	  - Pose: distance in [0, DistanceLimit] refined; reachable beyond
//	    the limit constant; unreachable ignored.
//	  - Intrinsic: ignored when no associated pose is refined or
//	    constant; constant when frozen, or when every associated pose
//	    is constant; refined otherwise.
//	  - Landmark: refined when at least one observer is refined;
//	    constant when no observer is refined but at least one is
//	    constant; ignored otherwise (including zero observers).
//
//	An empty input produces empty maps: a reconstruction with nothing
//	to schedule is a valid steady state, not an error.
//
// Inputs:
//
//	in - Distance map, associations, and frozen flags.
//	opts - Policy options (distance limit).
//
// Outputs:
//
//	Result - Fresh state maps for poses, intrinsics, and landmarks.
func Classify(in Input, opts ...Option) Result {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	result := Result{
		Poses:      make(map[scene.PoseID]State, len(in.PoseDistances)),
		Intrinsics: make(map[scene.IntrinsicID]State),
		Landmarks:  make(map[scene.LandmarkID]State, len(in.LandmarkObservers)),
	}

	for poseID, d := range in.PoseDistances {
		switch {
		case d == graph.Unreachable:
			result.Poses[poseID] = StateIgnored
		case d <= options.DistanceLimit:
			result.Poses[poseID] = StateRefined
		default:
			result.Poses[poseID] = StateConstant
		}
	}

	// Aggregate pose states per intrinsic before deciding intrinsics.
	type intrinsicUse struct {
		refined  int
		constant int
		ignored  int
	}
	uses := make(map[scene.IntrinsicID]*intrinsicUse)
	for poseID, intrinsicID := range in.IntrinsicOfPose {
		use, ok := uses[intrinsicID]
		if !ok {
			use = &intrinsicUse{}
			uses[intrinsicID] = use
		}
		// A pose absent from the distance map is treated as
		// unreachable, per the degrade-to-ignored policy.
		switch result.Poses[poseID] {
		case StateRefined:
			use.refined++
		case StateConstant:
			use.constant++
		default:
			use.ignored++
		}
	}
	for intrinsicID, use := range uses {
		switch {
		case use.refined == 0 && use.constant == 0:
			result.Intrinsics[intrinsicID] = StateIgnored
		case in.FrozenIntrinsics[intrinsicID]:
			result.Intrinsics[intrinsicID] = StateConstant
		case use.refined == 0:
			result.Intrinsics[intrinsicID] = StateConstant
		default:
			result.Intrinsics[intrinsicID] = StateRefined
		}
	}

	for landmarkID, observers := range in.LandmarkObservers {
		state := StateIgnored
		for _, poseID := range observers {
			switch result.Poses[poseID] {
			case StateRefined:
				state = StateRefined
			case StateConstant:
				if state != StateRefined {
					state = StateConstant
				}
			}
			if state == StateRefined {
				break
			}
		}
		result.Landmarks[landmarkID] = state
	}

	return result
}
