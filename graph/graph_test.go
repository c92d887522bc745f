// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/localba/scene"
)

// buildTriangle returns a graph with views 1, 2, 3 and match edges 1-2,
// 2-3, 1-3.
func buildTriangle(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []scene.ViewID{1, 2, 3} {
		require.True(t, g.AddView(id))
	}
	for _, p := range []scene.Pair{{I: 1, J: 2}, {I: 2, J: 3}, {I: 1, J: 3}} {
		e, err := g.connect(p.I, p.J, EdgeKindMatch)
		require.NoError(t, err)
		require.NotNil(t, e)
	}
	return g
}

// TestNew_Empty verifies a fresh graph has no nodes or edges.
func TestNew_Empty(t *testing.T) {
	g := New()

	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Empty(t, g.Views())
	assert.Empty(t, g.EdgePairs())
}

// TestAddView_Idempotent verifies re-adding a view is a no-op.
func TestAddView_Idempotent(t *testing.T) {
	g := New()

	assert.True(t, g.AddView(7))
	assert.False(t, g.AddView(7))
	assert.Equal(t, 1, g.NodeCount())
	assert.True(t, g.HasView(7))
}

// TestConnect_SelfEdge verifies a self edge is rejected.
func TestConnect_SelfEdge(t *testing.T) {
	g := New()
	g.AddView(1)

	e, err := g.connect(1, 1, EdgeKindMatch)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrSelfEdge)
	assert.Equal(t, 0, g.EdgeCount())
}

// TestConnect_UnknownView verifies connecting a missing view fails.
func TestConnect_UnknownView(t *testing.T) {
	g := New()
	g.AddView(1)

	e, err := g.connect(1, 99, EdgeKindMatch)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

// TestConnect_AlreadyConnected verifies reconnecting is a nil-nil no-op.
func TestConnect_AlreadyConnected(t *testing.T) {
	g := buildTriangle(t)

	e, err := g.connect(1, 2, EdgeKindMatch)
	assert.NoError(t, err)
	assert.Nil(t, e)
	assert.Equal(t, 3, g.MatchEdgeCount())
}

// TestAdjacency_Symmetric verifies both endpoints see every edge.
func TestAdjacency_Symmetric(t *testing.T) {
	g := buildTriangle(t)

	for _, pair := range g.EdgePairs() {
		assert.True(t, g.HasEdge(pair.I, pair.J))
		assert.True(t, g.HasEdge(pair.J, pair.I))
	}
	for _, id := range g.Views() {
		assert.Equal(t, 2, g.Degree(id))
	}
}

// TestRemoveViews_RemovesIncidentEdges verifies node removal cleans both
// adjacency sides.
func TestRemoveViews_RemovesIncidentEdges(t *testing.T) {
	g := buildTriangle(t)

	require.NoError(t, g.RemoveViews([]scene.ViewID{2}))

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.MatchEdgeCount())
	assert.False(t, g.HasView(2))
	assert.False(t, g.HasEdge(1, 2))
	assert.False(t, g.HasEdge(3, 2))
	assert.True(t, g.HasEdge(1, 3))
	assert.Equal(t, 1, g.Degree(1))
	assert.Equal(t, 1, g.Degree(3))
}

// TestRemoveViews_UnknownReported verifies unknown ids produce an error
// while known ids are still removed.
func TestRemoveViews_UnknownReported(t *testing.T) {
	g := buildTriangle(t)

	err := g.RemoveViews([]scene.ViewID{2, 42})
	assert.ErrorIs(t, err, ErrViewNotFound)
	assert.Contains(t, err.Error(), "42")
	assert.False(t, g.HasView(2), "known view should be removed despite the error")
}

// TestGraph_NodeMapInvariant verifies every node carries the id it is
// keyed under, in both directions.
func TestGraph_NodeMapInvariant(t *testing.T) {
	g := buildTriangle(t)
	require.NoError(t, g.RemoveViews([]scene.ViewID{2}))
	g.AddView(8)

	for id, n := range g.nodes {
		assert.Equal(t, id, n.ID)
		for other, e := range n.Neighbors {
			assert.Same(t, e, g.nodes[other].Neighbors[id],
				"both endpoints must share the same edge value")
		}
	}
	for _, id := range g.Views() {
		assert.Equal(t, id, g.nodes[id].ID)
	}
}

// TestViews_Sorted verifies Views returns ascending ids regardless of
// insertion order.
func TestViews_Sorted(t *testing.T) {
	g := New()
	for _, id := range []scene.ViewID{9, 3, 7, 1} {
		g.AddView(id)
	}

	assert.Equal(t, []scene.ViewID{1, 3, 7, 9}, g.Views())
}

// TestEdgePairs_CanonicalSorted verifies pair order is canonical and
// deterministic.
func TestEdgePairs_CanonicalSorted(t *testing.T) {
	g := buildTriangle(t)

	assert.Equal(t, []scene.Pair{
		{I: 1, J: 2},
		{I: 1, J: 3},
		{I: 2, J: 3},
	}, g.EdgePairs())
}
