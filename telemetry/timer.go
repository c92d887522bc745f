// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides the observability surface of the scheduling
// core: a per-phase wall-clock timer for each cycle and OpenTelemetry
// metrics for aggregate counts.
//
// Nothing here is algorithmically interesting; the host pipeline decides
// where the timing report and metrics go.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Phase names one step of the scheduling cycle.
type Phase int

const (
	// PhaseGraphUpdate covers node and match-edge insertion.
	PhaseGraphUpdate Phase = iota

	// PhaseComputeDistances covers coupling plus the BFS.
	PhaseComputeDistances

	// PhaseConvertStates covers distance-to-state classification.
	PhaseConvertStates

	// PhaseAdjustment covers the external solver run.
	PhaseAdjustment

	// PhaseSaveIntrinsics covers the post-solver intrinsics snapshot.
	PhaseSaveIntrinsics

	// NumPhases is the total number of phases (for array sizing).
	NumPhases
)

// phaseNames maps Phase values to their report labels.
var phaseNames = map[Phase]string{
	PhaseGraphUpdate:      "graph update",
	PhaseComputeDistances: "distance computation",
	PhaseConvertStates:    "state conversion",
	PhaseAdjustment:       "adjustment",
	PhaseSaveIntrinsics:   "intrinsics save",
}

// String returns the report label of the Phase.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// PhaseTimer accumulates elapsed wall-clock seconds per cycle phase.
//
// # Description
//
// Save(phase) charges the time since the previous mark (or since Reset)
// to the given phase and starts a new mark, so a cycle simply calls Save
// after finishing each step. Totals accumulate across cycles until Reset.
//
// # Thread Safety
//
// NOT safe for concurrent use; owned by the single-threaded cycle.
type PhaseTimer struct {
	elapsed [NumPhases]float64
	mark    time.Time
	now     func() time.Time
}

// NewPhaseTimer creates a timer with the mark set to now.
func NewPhaseTimer() *PhaseTimer {
	t := &PhaseTimer{now: time.Now}
	t.mark = t.now()
	return t
}

// Reset clears all accumulated phase times and restarts the mark.
func (t *PhaseTimer) Reset() {
	t.elapsed = [NumPhases]float64{}
	t.mark = t.now()
}

// Restart moves the mark to now without clearing totals. Call it before
// the first timed step of a cycle so time spent outside the cycle is not
// charged to the first phase.
func (t *PhaseTimer) Restart() {
	t.mark = t.now()
}

// Save charges the time since the previous mark to the phase.
func (t *PhaseTimer) Save(p Phase) {
	if p < 0 || p >= NumPhases {
		return
	}
	now := t.now()
	t.elapsed[p] += now.Sub(t.mark).Seconds()
	t.mark = now
}

// Elapsed returns the accumulated seconds for the phase.
func (t *PhaseTimer) Elapsed(p Phase) float64 {
	if p < 0 || p >= NumPhases {
		return 0
	}
	return t.elapsed[p]
}

// Total returns the accumulated seconds across all phases.
func (t *PhaseTimer) Total() float64 {
	var total float64
	for _, e := range t.elapsed {
		total += e
	}
	return total
}

// String returns the printable timing report.
func (t *PhaseTimer) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "time spent per phase:\n")
	for p := Phase(0); p < NumPhases; p++ {
		fmt.Fprintf(&b, "  %-21s %8.3fs\n", p.String(), t.elapsed[p])
	}
	fmt.Fprintf(&b, "  %-21s %8.3fs\n", "total", t.Total())
	return b.String()
}

// Export writes the timing report to w.
func (t *PhaseTimer) Export(w io.Writer) error {
	_, err := io.WriteString(w, t.String())
	return err
}

// ExportFile writes the timing report to the named file.
func (t *PhaseTimer) ExportFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create timing report %s: %w", filename, err)
	}
	if err := t.Export(f); err != nil {
		f.Close()
		return fmt.Errorf("write timing report %s: %w", filename, err)
	}
	return f.Close()
}
