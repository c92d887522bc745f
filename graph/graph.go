// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/AleutianAI/localba/scene"
)

// Default configuration values.
const (
	// DefaultMinSharedLandmarks is the minimum number of jointly observed
	// landmarks for two views to be connected by a match edge.
	DefaultMinSharedLandmarks = 100
)

// EdgeKind distinguishes persistent match edges from temporary coupling
// edges.
type EdgeKind int

const (
	// EdgeKindMatch connects two views with sufficient shared
	// observations. Match edges persist until one endpoint is removed.
	EdgeKindMatch EdgeKind = iota

	// EdgeKindCoupling connects two views sharing an intrinsic. Coupling
	// edges exist only for the duration of one distance computation.
	EdgeKindCoupling
)

// String returns the string representation of the EdgeKind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeKindMatch:
		return "match"
	case EdgeKindCoupling:
		return "coupling"
	default:
		return "unknown"
	}
}

// edge is an undirected edge between two views. Endpoints are stored in
// canonical order (A < B).
type edge struct {
	A    scene.ViewID
	B    scene.ViewID
	Kind EdgeKind
}

// node is one registered view. The node carries its own id so that the
// id-to-node map and the node-to-id direction can never disagree: there is
// a single container, not two hand-synchronized ones.
type node struct {
	ID scene.ViewID

	// Neighbors maps the adjacent view id to the connecting edge.
	Neighbors map[scene.ViewID]*edge
}

// Options configures Graph behavior.
type Options struct {
	// MinSharedLandmarks is the match-edge threshold.
	// Default: 100
	MinSharedLandmarks int

	// Logger receives warnings for defensive no-ops (self edges, unknown
	// views). Default: slog.Default()
	Logger *slog.Logger
}

// DefaultOptions returns sensible defaults for graph configuration.
func DefaultOptions() Options {
	return Options{
		MinSharedLandmarks: DefaultMinSharedLandmarks,
		Logger:             slog.Default(),
	}
}

// Option is a functional option for configuring Graph.
type Option func(*Options)

// WithMinSharedLandmarks sets the match-edge threshold. Values < 1 keep
// the default.
func WithMinSharedLandmarks(n int) Option {
	return func(o *Options) {
		if n >= 1 {
			o.MinSharedLandmarks = n
		}
	}
}

// WithLogger sets the logger for defensive no-op warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// Graph is the undirected view-connectivity graph.
//
// See the package documentation for the lifecycle and thread-safety
// contract.
type Graph struct {
	// nodes maps view id to node. Unexported to prevent direct access.
	nodes map[scene.ViewID]*node

	// matchEdges counts the persistent edges currently in the graph.
	matchEdges int

	// coupling holds the temporary edges inserted by the last
	// AddIntrinsicCoupling call, in insertion order.
	coupling []*edge

	options Options
}

// New creates an empty distance graph.
//
// Example:
//
//	g := graph.New()
//	g := graph.New(graph.WithMinSharedLandmarks(50))
func New(opts ...Option) *Graph {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Graph{
		nodes:   make(map[scene.ViewID]*node),
		options: options,
	}
}

// NodeCount returns the number of views in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// MatchEdgeCount returns the number of persistent match edges.
func (g *Graph) MatchEdgeCount() int {
	return g.matchEdges
}

// CouplingEdgeCount returns the number of live coupling edges.
func (g *Graph) CouplingEdgeCount() int {
	return len(g.coupling)
}

// EdgeCount returns the total number of edges, coupling included.
func (g *Graph) EdgeCount() int {
	return g.matchEdges + len(g.coupling)
}

// HasView reports whether the view has a node in the graph.
func (g *Graph) HasView(id scene.ViewID) bool {
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether the two views are directly connected by any
// edge kind.
func (g *Graph) HasEdge(a, b scene.ViewID) bool {
	n, ok := g.nodes[a]
	if !ok {
		return false
	}
	_, connected := n.Neighbors[b]
	return connected
}

// Degree returns the number of edges incident to the view, or 0 if the
// view is unknown.
func (g *Graph) Degree(id scene.ViewID) int {
	n, ok := g.nodes[id]
	if !ok {
		return 0
	}
	return len(n.Neighbors)
}

// Views returns all view ids in ascending order.
func (g *Graph) Views() []scene.ViewID {
	views := make([]scene.ViewID, 0, len(g.nodes))
	for id := range g.nodes {
		views = append(views, id)
	}
	sort.Slice(views, func(i, j int) bool { return views[i] < views[j] })
	return views
}

// EdgePairs returns the endpoint pairs of every edge, canonical order,
// sorted. Used by tests to compare edge sets before and after coupling.
func (g *Graph) EdgePairs() []scene.Pair {
	pairs := make([]scene.Pair, 0, g.EdgeCount())
	for id, n := range g.nodes {
		for other := range n.Neighbors {
			if id < other {
				pairs = append(pairs, scene.Pair{I: id, J: other})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].I != pairs[j].I {
			return pairs[i].I < pairs[j].I
		}
		return pairs[i].J < pairs[j].J
	})
	return pairs
}

// AddView inserts a node for the view if absent.
//
// Outputs:
//
//	bool - True if a node was created, false if the view was already
//	present (a no-op, not an error).
func (g *Graph) AddView(id scene.ViewID) bool {
	if _, exists := g.nodes[id]; exists {
		return false
	}
	g.nodes[id] = &node{
		ID:        id,
		Neighbors: make(map[scene.ViewID]*edge),
	}
	return true
}

// RemoveViews removes each view's node and all incident edges.
//
// Description:
//
//	Known views are always removed, including any residual coupling
//	edges touching them. Unknown views are reported, not silently
//	ignored: the returned error names every id that had no node.
//
// Inputs:
//
//	ids - Views to remove.
//
// Outputs:
//
//	error - Non-nil (wrapping ErrViewNotFound) if any id was unknown.
//	The known ids in the batch are removed regardless.
func (g *Graph) RemoveViews(ids []scene.ViewID) error {
	var unknown []scene.ViewID

	for _, id := range ids {
		n, ok := g.nodes[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}

		for other, e := range n.Neighbors {
			delete(g.nodes[other].Neighbors, id)
			switch e.Kind {
			case EdgeKindMatch:
				g.matchEdges--
			case EdgeKindCoupling:
				g.dropCouplingRecord(e)
			}
		}
		delete(g.nodes, id)
	}

	if len(unknown) > 0 {
		labels := make([]string, len(unknown))
		for i, id := range unknown {
			labels[i] = fmt.Sprintf("%d", id)
		}
		return fmt.Errorf("%w: %s", ErrViewNotFound, strings.Join(labels, ", "))
	}
	return nil
}

// dropCouplingRecord removes the edge from the coupling bookkeeping slice.
func (g *Graph) dropCouplingRecord(e *edge) {
	for i, c := range g.coupling {
		if c == e {
			g.coupling = append(g.coupling[:i], g.coupling[i+1:]...)
			return
		}
	}
}

// connect inserts an undirected edge between two existing views.
//
// Outputs:
//
//	*edge - The inserted edge, or nil when the pair was already
//	connected (idempotent no-op).
//	error - ErrSelfEdge or ErrViewNotFound. Callers treat both as
//	defensive no-ops.
func (g *Graph) connect(a, b scene.ViewID, kind EdgeKind) (*edge, error) {
	if a == b {
		return nil, fmt.Errorf("%w: %d", ErrSelfEdge, a)
	}
	na, ok := g.nodes[a]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrViewNotFound, a)
	}
	nb, ok := g.nodes[b]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrViewNotFound, b)
	}
	if _, connected := na.Neighbors[b]; connected {
		return nil, nil
	}

	if a > b {
		a, b = b, a
	}
	e := &edge{A: a, B: b, Kind: kind}
	na.Neighbors[nb.ID] = e
	nb.Neighbors[na.ID] = e

	if kind == EdgeKindMatch {
		g.matchEdges++
	}
	return e, nil
}

// disconnect removes the given edge from both adjacency maps, if it is
// still the live edge for that pair.
func (g *Graph) disconnect(e *edge) bool {
	na, okA := g.nodes[e.A]
	nb, okB := g.nodes[e.B]
	if !okA || !okB {
		return false
	}
	if na.Neighbors[e.B] != e {
		return false
	}
	delete(na.Neighbors, e.B)
	delete(nb.Neighbors, e.A)
	return true
}
