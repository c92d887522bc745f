// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sched classifies every optimizable parameter of the
// reconstruction (pose, intrinsic, landmark) into its participation state
// for the next bundle adjustment pass.
//
// Classification is a pure function of the pose distance map and the
// frozen-intrinsic flags: no state carries over between cycles, so the
// schedule self-heals when the graph topology changes. The external solver
// treats ignored entities as absent, constant entities as fixed values,
// and refined entities as free variables.
package sched

// State is the participation state of one parameter in the next solver
// run. The zero value is StateIgnored: anything the classifier never saw
// stays out of the problem.
type State int

const (
	// StateIgnored excludes the parameter from the solver entirely.
	StateIgnored State = iota

	// StateConstant enters the solver but is held fixed. Constant
	// parameters contribute residuals without moving.
	StateConstant

	// StateRefined enters the solver as a free variable.
	StateRefined
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateIgnored:
		return "ignored"
	case StateConstant:
		return "constant"
	case StateRefined:
		return "refined"
	default:
		return "unknown"
	}
}
