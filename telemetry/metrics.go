// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics contains pre-defined metrics for the scheduling core.
//
// Description:
//
//	Counters and histograms for scheduling cycles, entity states, and
//	graph shape. All metrics use the "localba_" prefix. The host
//	pipeline owns the MeterProvider; this package only uses the metric
//	API, so with no provider installed every instrument is a no-op.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// CyclesTotal counts completed scheduling cycles.
	CyclesTotal metric.Int64Counter

	// CycleDuration records full cycle duration in seconds.
	CycleDuration metric.Float64Histogram

	// EntitiesByState counts classified entities by kind and state.
	EntitiesByState metric.Int64Counter

	// GraphNodes records the node count after each graph update.
	GraphNodes metric.Int64Gauge

	// GraphMatchEdges records the match-edge count after each update.
	GraphMatchEdges metric.Int64Gauge

	// FrozenIntrinsicsTotal counts intrinsics frozen by convergence.
	FrozenIntrinsicsTotal metric.Int64Counter

	// ViewsAtDistance records the distance histogram of each cycle.
	ViewsAtDistance metric.Int64Histogram
}

// NewMetrics creates a new Metrics instance with all metrics registered.
//
// Inputs:
//
//	meter - The OTel meter to use for metric registration.
//
// Outputs:
//
//	*Metrics - The metrics instance with all instruments initialized.
//	error - Non-nil if metric registration fails.
//
// Example:
//
//	meter := otel.Meter("localba")
//	metrics, err := telemetry.NewMetrics(meter)
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.CyclesTotal, err = meter.Int64Counter(
		"localba_cycles_total",
		metric.WithDescription("Total scheduling cycles completed"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cycles_total: %w", err)
	}

	m.CycleDuration, err = meter.Float64Histogram(
		"localba_cycle_duration_seconds",
		metric.WithDescription("Scheduling cycle duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("create cycle_duration: %w", err)
	}

	m.EntitiesByState, err = meter.Int64Counter(
		"localba_entities_by_state_total",
		metric.WithDescription("Classified entities by kind and state"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create entities_by_state: %w", err)
	}

	m.GraphNodes, err = meter.Int64Gauge(
		"localba_graph_nodes",
		metric.WithDescription("Views in the distance graph"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create graph_nodes: %w", err)
	}

	m.GraphMatchEdges, err = meter.Int64Gauge(
		"localba_graph_match_edges",
		metric.WithDescription("Match edges in the distance graph"),
		metric.WithUnit("{edge}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create graph_match_edges: %w", err)
	}

	m.FrozenIntrinsicsTotal, err = meter.Int64Counter(
		"localba_frozen_intrinsics_total",
		metric.WithDescription("Intrinsics frozen by the convergence tracker"),
		metric.WithUnit("{intrinsic}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create frozen_intrinsics_total: %w", err)
	}

	m.ViewsAtDistance, err = meter.Int64Histogram(
		"localba_views_at_distance",
		metric.WithDescription("Graph distance from the frontier per view"),
		metric.WithUnit("{hop}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 8, 13, 21),
	)
	if err != nil {
		return nil, fmt.Errorf("create views_at_distance: %w", err)
	}

	return m, nil
}

// RecordStates emits one EntitiesByState data point per state for the
// given entity kind.
func (m *Metrics) RecordStates(ctx context.Context, kind string, refined, constant, ignored int) {
	kindAttr := attribute.String("kind", kind)
	m.EntitiesByState.Add(ctx, int64(refined), metric.WithAttributes(
		kindAttr, attribute.String("state", "refined")))
	m.EntitiesByState.Add(ctx, int64(constant), metric.WithAttributes(
		kindAttr, attribute.String("state", "constant")))
	m.EntitiesByState.Add(ctx, int64(ignored), metric.WithAttributes(
		kindAttr, attribute.String("state", "ignored")))
}
