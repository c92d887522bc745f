// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/localba/scene"
)

// TestLoadScene verifies the snapshot JSON round-trips into the scene
// types.
func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"reconstruction": {
			"poses": {"1": 10, "2": 11},
			"intrinsics": {"1": 0, "2": 0},
			"focal_lengths": {"0": 1200.5},
			"landmarks": {"100": [1, 2]}
		},
		"frontier": [2],
		"shared_matches": [{"i": 2, "j": 1, "count": 150}]
	}`), 0o640))

	sf, err := loadScene(path)
	require.NoError(t, err)

	assert.Equal(t, scene.PoseID(10), sf.Reconstruction.Poses[1])
	assert.Equal(t, 1200.5, sf.Reconstruction.FocalLengths[0])
	assert.Equal(t, []scene.ViewID{2}, sf.Frontier)
	require.Len(t, sf.SharedMatches, 1)
	assert.Equal(t, 150, sf.SharedMatches[0].Count)
	assert.NoError(t, sf.Reconstruction.Validate())
}

// TestLoadScene_Missing verifies an absent file is an error.
func TestLoadScene_Missing(t *testing.T) {
	_, err := loadScene(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
