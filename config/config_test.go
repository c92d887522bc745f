// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig drops a YAML config into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

// TestLoad_EmptyPathIsDefault verifies omitting the file yields defaults.
func TestLoad_EmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 100, cfg.Graph.MinSharedLandmarks)
	assert.Equal(t, 1, cfg.Scheduling.DistanceLimit)
	assert.Equal(t, 25, cfg.Intrinsics.WindowSize)
	assert.Equal(t, 0.005, cfg.Intrinsics.StdevPercentageLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
}

// TestLoad_OverridesMergeWithDefaults verifies partial files keep the
// untouched defaults.
func TestLoad_OverridesMergeWithDefaults(t *testing.T) {
	path := writeConfig(t, `
graph:
  min_shared_landmarks: 50
scheduling:
  distance_limit: 3
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Graph.MinSharedLandmarks)
	assert.Equal(t, 3, cfg.Scheduling.DistanceLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 25, cfg.Intrinsics.WindowSize, "untouched section keeps defaults")
}

// TestLoad_MissingFile verifies a named but absent file is an error.
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestLoad_MalformedYAML verifies parse failures surface.
func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "graph: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

// TestValidate_Ranges verifies each range check fires.
func TestValidate_Ranges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero shared landmarks", func(c *Config) { c.Graph.MinSharedLandmarks = 0 }},
		{"negative distance limit", func(c *Config) { c.Scheduling.DistanceLimit = -1 }},
		{"window too small", func(c *Config) { c.Intrinsics.WindowSize = 1 }},
		{"zero stdev limit", func(c *Config) { c.Intrinsics.StdevPercentageLimit = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

// TestValidate_ZeroDistanceLimit verifies the frontier-only policy is
// legal configuration.
func TestValidate_ZeroDistanceLimit(t *testing.T) {
	cfg := Default()
	cfg.Scheduling.DistanceLimit = 0
	assert.NoError(t, cfg.Validate())
}
