// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/localba/graph"
	"github.com/AleutianAI/localba/scene"
)

// TestClassify_PoseStates verifies the distance thresholds for poses.
func TestClassify_PoseStates(t *testing.T) {
	result := Classify(Input{
		PoseDistances: map[scene.PoseID]int{
			10: 0,
			11: 1,
			12: 2,
			13: graph.Unreachable,
		},
	})

	assert.Equal(t, StateRefined, result.Poses[10])
	assert.Equal(t, StateRefined, result.Poses[11])
	assert.Equal(t, StateConstant, result.Poses[12])
	assert.Equal(t, StateIgnored, result.Poses[13])
}

// TestClassify_DistanceLimitOption verifies the refinement window is
// configurable.
func TestClassify_DistanceLimitOption(t *testing.T) {
	in := Input{
		PoseDistances: map[scene.PoseID]int{10: 2, 11: 3},
	}

	wide := Classify(in, WithDistanceLimit(2))
	assert.Equal(t, StateRefined, wide.Poses[10])
	assert.Equal(t, StateConstant, wide.Poses[11])

	zero := Classify(in, WithDistanceLimit(0))
	assert.Equal(t, StateConstant, zero.Poses[10])
	assert.Equal(t, StateConstant, zero.Poses[11])
}

// TestClassify_IntrinsicFollowsPoses verifies intrinsic state derives
// from its poses' states.
func TestClassify_IntrinsicFollowsPoses(t *testing.T) {
	result := Classify(Input{
		PoseDistances: map[scene.PoseID]int{
			10: 0,                 // refined, intrinsic 0
			11: 5,                 // constant, intrinsic 1
			12: graph.Unreachable, // ignored, intrinsic 2
		},
		IntrinsicOfPose: map[scene.PoseID]scene.IntrinsicID{
			10: 0,
			11: 1,
			12: 2,
		},
	})

	assert.Equal(t, StateRefined, result.Intrinsics[0])
	assert.Equal(t, StateConstant, result.Intrinsics[1])
	assert.Equal(t, StateIgnored, result.Intrinsics[2])
}

// TestClassify_FrozenIntrinsicConstant verifies a frozen intrinsic is
// constant even while its poses are refined.
func TestClassify_FrozenIntrinsicConstant(t *testing.T) {
	result := Classify(Input{
		PoseDistances:    map[scene.PoseID]int{10: 0},
		IntrinsicOfPose:  map[scene.PoseID]scene.IntrinsicID{10: 0},
		FrozenIntrinsics: map[scene.IntrinsicID]bool{0: true},
	})

	assert.Equal(t, StateRefined, result.Poses[10])
	assert.Equal(t, StateConstant, result.Intrinsics[0])
}

// TestClassify_FrozenWithoutActivePoses verifies freezing does not
// resurrect an intrinsic whose poses are all ignored.
func TestClassify_FrozenWithoutActivePoses(t *testing.T) {
	result := Classify(Input{
		PoseDistances:    map[scene.PoseID]int{10: graph.Unreachable},
		IntrinsicOfPose:  map[scene.PoseID]scene.IntrinsicID{10: 0},
		FrozenIntrinsics: map[scene.IntrinsicID]bool{0: true},
	})

	assert.Equal(t, StateIgnored, result.Intrinsics[0])
}

// TestClassify_PoseMissingFromDistances verifies a pose absent from the
// distance map degrades to ignored for its intrinsic.
func TestClassify_PoseMissingFromDistances(t *testing.T) {
	result := Classify(Input{
		IntrinsicOfPose: map[scene.PoseID]scene.IntrinsicID{10: 0},
	})

	assert.Equal(t, StateIgnored, result.Intrinsics[0])
}

// TestClassify_LandmarkStates verifies the observer-based landmark rules.
func TestClassify_LandmarkStates(t *testing.T) {
	result := Classify(Input{
		PoseDistances: map[scene.PoseID]int{
			10: 0, // refined
			11: 5, // constant
			12: graph.Unreachable,
		},
		LandmarkObservers: map[scene.LandmarkID][]scene.PoseID{
			100: {10, 11},  // one refined observer
			101: {11, 12},  // constant and ignored
			102: {12},      // only ignored
			103: {},        // no observers
			104: {999},     // observer missing from distances
			105: {12, 10},  // refined found after ignored
		},
	})

	assert.Equal(t, StateRefined, result.Landmarks[100])
	assert.Equal(t, StateConstant, result.Landmarks[101])
	assert.Equal(t, StateIgnored, result.Landmarks[102])
	assert.Equal(t, StateIgnored, result.Landmarks[103])
	assert.Equal(t, StateIgnored, result.Landmarks[104])
	assert.Equal(t, StateRefined, result.Landmarks[105])
}

// TestClassify_EmptyInput verifies an empty reconstruction is a valid
// steady state.
func TestClassify_EmptyInput(t *testing.T) {
	result := Classify(Input{})

	assert.Empty(t, result.Poses)
	assert.Empty(t, result.Intrinsics)
	assert.Empty(t, result.Landmarks)

	poses, intrinsics, landmarks := result.Counts()
	assert.Equal(t, StateCounts{}, poses)
	assert.Equal(t, StateCounts{}, intrinsics)
	assert.Equal(t, StateCounts{}, landmarks)
}

// TestClassify_Deterministic verifies repeated classification of the
// same input is identical.
func TestClassify_Deterministic(t *testing.T) {
	in := Input{
		PoseDistances: map[scene.PoseID]int{
			10: 0, 11: 1, 12: 2, 13: graph.Unreachable,
		},
		IntrinsicOfPose: map[scene.PoseID]scene.IntrinsicID{
			10: 0, 11: 0, 12: 1, 13: 1,
		},
		LandmarkObservers: map[scene.LandmarkID][]scene.PoseID{
			100: {10, 12}, 101: {13},
		},
	}

	first := Classify(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(in))
	}
}

// TestCounts verifies the per-kind state tally.
func TestCounts(t *testing.T) {
	result := Classify(Input{
		PoseDistances: map[scene.PoseID]int{
			10: 0, 11: 1, 12: 3, 13: graph.Unreachable,
		},
	})

	poses, _, _ := result.Counts()
	assert.Equal(t, StateCounts{Refined: 2, Constant: 1, Ignored: 1}, poses)
}

// TestState_String verifies the state labels.
func TestState_String(t *testing.T) {
	assert.Equal(t, "ignored", StateIgnored.String())
	assert.Equal(t, "constant", StateConstant.String())
	assert.Equal(t, "refined", StateRefined.String())
}
