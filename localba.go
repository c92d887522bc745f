// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package localba is the scheduling core for incremental local bundle
// adjustment.
//
// # Description
//
// An incremental structure-from-motion pipeline grows its reconstruction
// one batch of camera views at a time. Re-optimizing the entire scene
// after every batch is wasteful; this package decides, per optimization
// pass, which poses, intrinsics, and landmarks the solver should refine,
// hold constant, or leave out entirely.
//
// The decision is distance based. A persistent view-connectivity graph
// (package graph) connects views sharing enough landmarks; a multi-source
// BFS from the newly resected views assigns every view a distance, and
// the classifier (package sched) maps distances to the three states. A
// convergence tracker (package intrinsics) freezes intrinsics whose focal
// length has stabilized across passes.
//
// # Cycle Protocol
//
// The host pipeline drives one Engine per reconstruction:
//
//	result, err := engine.RunCycle(ctx, recon, newViews, sharedCounts)
//	// ... run the solver with result.States ...
//	engine.SaveAdjustmentTime()
//	frozen, err := engine.RecordIntrinsics(recon)
//
// # Thread Safety
//
// Engine is NOT safe for concurrent use. The pipeline owns it and calls
// it from a single goroutine, the same way it owns the solver.
package localba

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/localba/graph"
	"github.com/AleutianAI/localba/intrinsics"
	"github.com/AleutianAI/localba/sched"
	"github.com/AleutianAI/localba/telemetry"
)

// meterName is the instrumentation scope for engine metrics.
const meterName = "github.com/AleutianAI/localba"

// Options configures an Engine.
type Options struct {
	// DistanceLimit is the largest graph distance still refined.
	// Default: 1
	DistanceLimit int

	// MinSharedLandmarks is the match-edge threshold of the distance
	// graph. Default: 100
	MinSharedLandmarks int

	// WindowSize is the trailing-sample count of the convergence check.
	// Default: 25
	WindowSize int

	// StdevPercentageLimit is the normalized standard-deviation
	// threshold of the convergence check. Default: 0.005
	StdevPercentageLimit float64

	// Logger receives cycle summaries and defensive-no-op warnings.
	// Default: slog.Default()
	Logger *slog.Logger

	// Meter registers the engine's metrics. Default: the global
	// otel meter, a no-op unless the host installed a provider.
	Meter metric.Meter

	// Store persists the intrinsics history and frozen flags across
	// restarts. Default: nil (no persistence)
	Store *intrinsics.SnapshotStore
}

// DefaultOptions returns sensible defaults for the engine.
func DefaultOptions() Options {
	return Options{
		DistanceLimit:        sched.DefaultDistanceLimit,
		MinSharedLandmarks:   graph.DefaultMinSharedLandmarks,
		WindowSize:           25,
		StdevPercentageLimit: 0.005,
		Logger:               slog.Default(),
	}
}

// Option is a functional option for configuring the Engine.
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

// WithMinSharedLandmarks sets the match-edge threshold. Values < 1 keep
// the default.
func WithMinSharedLandmarks(n int) Option {
	return func(o *Options) {
		if n >= 1 {
			o.MinSharedLandmarks = n
		}
	}
}

// WithConvergence sets the convergence-check window and threshold.
// Non-positive values keep the defaults.
func WithConvergence(windowSize int, stdevPercentageLimit float64) Option {
	return func(o *Options) {
		if windowSize >= 2 {
			o.WindowSize = windowSize
		}
		if stdevPercentageLimit > 0 {
			o.StdevPercentageLimit = stdevPercentageLimit
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMeter sets the OTel meter for engine metrics.
func WithMeter(m metric.Meter) Option {
	return func(o *Options) {
		if m != nil {
			o.Meter = m
		}
	}
}

// WithStore attaches a snapshot store. The engine appends to it on every
// RecordIntrinsics call; the caller still owns Close.
func WithStore(s *intrinsics.SnapshotStore) Option {
	return func(o *Options) {
		o.Store = s
	}
}

// Engine owns the scheduling state that persists across cycles: the
// distance graph, the intrinsics tracker, and the phase timer.
type Engine struct {
	graph   *graph.Graph
	tracker *intrinsics.Tracker
	timer   *telemetry.PhaseTimer
	metrics *telemetry.Metrics
	options Options
}

// NewEngine creates a scheduling engine.
//
// Description:
//
//	When a snapshot store is attached, the persisted intrinsics history
//	and frozen flags are replayed into the tracker so a restarted
//	pipeline resumes convergence tracking where it left off.
//
// Outputs:
//
//	*Engine - Ready for RunCycle.
//	error - Non-nil if metric registration or store replay fails.
func NewEngine(opts ...Option) (*Engine, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Meter == nil {
		options.Meter = otel.Meter(meterName)
	}

	metrics, err := telemetry.NewMetrics(options.Meter)
	if err != nil {
		return nil, err
	}

	tracker := intrinsics.NewTracker()
	if options.Store != nil {
		if err := options.Store.Load(tracker); err != nil {
			return nil, err
		}
	}

	return &Engine{
		graph: graph.New(
			graph.WithMinSharedLandmarks(options.MinSharedLandmarks),
			graph.WithLogger(options.Logger),
		),
		tracker: tracker,
		timer:   telemetry.NewPhaseTimer(),
		metrics: metrics,
		options: options,
	}, nil
}

// Graph exposes the distance graph, read-only by convention.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Tracker exposes the intrinsics tracker, read-only by convention.
func (e *Engine) Tracker() *intrinsics.Tracker {
	return e.tracker
}

// Timer exposes the phase timer for report export.
func (e *Engine) Timer() *telemetry.PhaseTimer {
	return e.timer
}
