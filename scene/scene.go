// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scene defines the shared identifier types and the reconstruction
// snapshot consumed by the local bundle adjustment scheduling core.
//
// The scene package is a leaf: it has no dependencies inside this module and
// is imported by every other package. Identifiers are opaque integer keys
// assigned by the host pipeline; this core never interprets them beyond
// equality and map lookup.
//
// # Ownership Model
//
// A Reconstruction is a read-only snapshot handed in by the pipeline at the
// start of a scheduling cycle. The core never mutates it and never retains
// it past the cycle.
package scene

import (
	"fmt"
	"sort"
)

// ViewID identifies a registered camera view.
type ViewID uint32

// PoseID identifies a 6-DoF camera pose. A pose may be shared by several
// views (camera rigs); a view has at most one pose.
type PoseID uint32

// IntrinsicID identifies a calibration object (focal length, principal
// point, distortion) shared by zero or more views.
type IntrinsicID uint32

// LandmarkID identifies a triangulated 3D point.
type LandmarkID uint32

// Pair is an unordered pair of view identifiers in canonical form (I < J).
//
// Always construct pairs with MakePair so that map lookups are independent
// of argument order.
type Pair struct {
	I ViewID `json:"i"`
	J ViewID `json:"j"`
}

// MakePair returns the canonical pair for two views, smaller id first.
func MakePair(a, b ViewID) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{I: a, J: b}
}

// String returns "i-j" for logging and error messages.
func (p Pair) String() string {
	return fmt.Sprintf("%d-%d", p.I, p.J)
}

// Reconstruction is the pipeline's snapshot of the growing sparse scene.
//
// Only posed views appear in Poses. Landmarks map to the views observing
// them; observers that are not posed are ignored by the scheduler.
type Reconstruction struct {
	// Poses maps each posed view to its pose. Several views may share a
	// pose when they belong to the same rig.
	Poses map[ViewID]PoseID `json:"poses"`

	// Intrinsics maps each view to the calibration it uses.
	Intrinsics map[ViewID]IntrinsicID `json:"intrinsics"`

	// FocalLengths holds the current focal length of every intrinsic,
	// in pixels.
	FocalLengths map[IntrinsicID]float64 `json:"focal_lengths"`

	// Landmarks maps each triangulated point to the views observing it.
	Landmarks map[LandmarkID][]ViewID `json:"landmarks"`
}

// PosedViews returns all posed view ids in ascending order.
//
// The sort keeps downstream iteration deterministic; map iteration order
// must never leak into scheduling decisions.
func (r *Reconstruction) PosedViews() []ViewID {
	views := make([]ViewID, 0, len(r.Poses))
	for v := range r.Poses {
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i] < views[j] })
	return views
}

// ViewsByIntrinsic groups the posed views by the intrinsic they use.
//
// Views without a pose are skipped: an unposed view cannot contribute a
// coupling edge to the distance graph.
func (r *Reconstruction) ViewsByIntrinsic() map[IntrinsicID][]ViewID {
	grouped := make(map[IntrinsicID][]ViewID)
	for _, v := range r.PosedViews() {
		intrinsicID, ok := r.Intrinsics[v]
		if !ok {
			continue
		}
		grouped[intrinsicID] = append(grouped[intrinsicID], v)
	}
	return grouped
}

// ViewsOfPose groups the posed views by their pose, ascending within each
// group.
func (r *Reconstruction) ViewsOfPose() map[PoseID][]ViewID {
	grouped := make(map[PoseID][]ViewID)
	for _, v := range r.PosedViews() {
		poseID := r.Poses[v]
		grouped[poseID] = append(grouped[poseID], v)
	}
	return grouped
}

// PosesOfIntrinsic returns the distinct poses whose views use the given
// intrinsic.
func (r *Reconstruction) PosesOfIntrinsic(id IntrinsicID) []PoseID {
	seen := make(map[PoseID]bool)
	poses := make([]PoseID, 0)
	for _, v := range r.PosedViews() {
		if r.Intrinsics[v] != id {
			continue
		}
		poseID := r.Poses[v]
		if seen[poseID] {
			continue
		}
		seen[poseID] = true
		poses = append(poses, poseID)
	}
	return poses
}

// LandmarkObservers returns, per landmark, the poses of its posed observers.
//
// Unposed observers are dropped. A landmark observed only by unposed views
// maps to an empty slice, which the classifier treats as ignored.
func (r *Reconstruction) LandmarkObservers() map[LandmarkID][]PoseID {
	observers := make(map[LandmarkID][]PoseID, len(r.Landmarks))
	for landmarkID, views := range r.Landmarks {
		seen := make(map[PoseID]bool)
		poses := make([]PoseID, 0, len(views))
		for _, v := range views {
			poseID, ok := r.Poses[v]
			if !ok {
				continue
			}
			if seen[poseID] {
				continue
			}
			seen[poseID] = true
			poses = append(poses, poseID)
		}
		observers[landmarkID] = poses
	}
	return observers
}

// Validate checks internal consistency of the snapshot.
//
// A posed view missing its intrinsic is an error: the scheduler cannot
// couple or classify it. Landmark observers that are unposed are legal
// (they simply do not count).
func (r *Reconstruction) Validate() error {
	for v := range r.Poses {
		if _, ok := r.Intrinsics[v]; !ok {
			return fmt.Errorf("posed view %d has no intrinsic", v)
		}
	}
	for v, intrinsicID := range r.Intrinsics {
		if _, ok := r.Poses[v]; !ok {
			continue
		}
		if _, ok := r.FocalLengths[intrinsicID]; !ok {
			return fmt.Errorf("intrinsic %d of view %d has no focal length", intrinsicID, v)
		}
	}
	return nil
}
