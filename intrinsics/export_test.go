// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package intrinsics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExportHistory_WritesOneFilePerIntrinsic verifies the K<id>.txt
// layout and line format.
func TestExportHistory_WritesOneFilePerIntrinsic(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(0, 3, 1200.5)
	tracker.Record(0, 8, 1201.25)
	tracker.Record(4, 2, 900.0)

	dir := t.TempDir()
	require.NoError(t, tracker.ExportHistory(dir))

	k0, err := os.ReadFile(filepath.Join(dir, "K0.txt"))
	require.NoError(t, err)
	assert.Equal(t, "3 1200.500000\n8 1201.250000\n", string(k0))

	k4, err := os.ReadFile(filepath.Join(dir, "K4.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2 900.000000\n", string(k4))
}

// TestExportHistory_CreatesDirectory verifies a missing destination is
// created.
func TestExportHistory_CreatesDirectory(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(1, 1, 1000)

	dir := filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, tracker.ExportHistory(dir))

	_, err := os.Stat(filepath.Join(dir, "K1.txt"))
	assert.NoError(t, err)
}

// TestExportHistory_EmptyTracker verifies an empty tracker writes
// nothing and succeeds.
func TestExportHistory_EmptyTracker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewTracker().ExportHistory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
