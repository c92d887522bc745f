// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the scheduling-core configuration.
//
// Configuration comes from a YAML file; every field has a default so an
// empty file (or no file at all) yields a working setup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the scheduling core.
type Config struct {
	// Graph controls the distance graph.
	Graph GraphConfig `yaml:"graph"`

	// Scheduling controls distance-to-state classification.
	Scheduling SchedulingConfig `yaml:"scheduling"`

	// Intrinsics controls convergence tracking and persistence.
	Intrinsics IntrinsicsConfig `yaml:"intrinsics"`

	// Logging controls log output.
	Logging LoggingConfig `yaml:"logging"`
}

// GraphConfig controls match-edge admission.
type GraphConfig struct {
	// MinSharedLandmarks is the minimum number of landmarks two views
	// must share for a match edge. Default: 100
	MinSharedLandmarks int `yaml:"min_shared_landmarks"`
}

// SchedulingConfig controls the classifier.
type SchedulingConfig struct {
	// DistanceLimit is the maximum graph distance at which a pose is
	// still refined. Default: 1
	DistanceLimit int `yaml:"distance_limit"`
}

// IntrinsicsConfig controls the convergence tracker.
type IntrinsicsConfig struct {
	// WindowSize is the number of recent focal samples the convergence
	// check looks at. Default: 25
	WindowSize int `yaml:"window_size"`

	// StdevPercentageLimit is the normalized standard-deviation
	// threshold below which a focal length is declared converged.
	// Default: 0.005
	StdevPercentageLimit float64 `yaml:"stdev_percentage_limit"`

	// StorePath is the BadgerDB directory for history persistence.
	// Empty disables persistence. Default: ""
	StorePath string `yaml:"store_path"`

	// ExportDir is where ExportHistory writes the K<id>.txt tables.
	// Default: "." when exporting is requested.
	ExportDir string `yaml:"export_dir"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Dir enables JSON file logging when set. Default: "" (disabled)
	Dir string `yaml:"dir"`

	// JSON switches stderr output to JSON. Default: false
	JSON bool `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Graph: GraphConfig{
			MinSharedLandmarks: 100,
		},
		Scheduling: SchedulingConfig{
			DistanceLimit: 1,
		},
		Intrinsics: IntrinsicsConfig{
			WindowSize:           25,
			StdevPercentageLimit: 0.005,
			ExportDir:            ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file on top of the defaults.
//
// Inputs:
//
//	path - Config file path. Empty returns Default() unchanged.
//
// Outputs:
//
//	Config - The merged configuration.
//	error - Non-nil if the file is unreadable, malformed, or invalid.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Graph.MinSharedLandmarks < 1 {
		return fmt.Errorf("graph.min_shared_landmarks must be >= 1, got %d",
			c.Graph.MinSharedLandmarks)
	}
	if c.Scheduling.DistanceLimit < 0 {
		return fmt.Errorf("scheduling.distance_limit must be >= 0, got %d",
			c.Scheduling.DistanceLimit)
	}
	if c.Intrinsics.WindowSize < 2 {
		return fmt.Errorf("intrinsics.window_size must be >= 2, got %d",
			c.Intrinsics.WindowSize)
	}
	if c.Intrinsics.StdevPercentageLimit <= 0 {
		return fmt.Errorf("intrinsics.stdev_percentage_limit must be > 0, got %g",
			c.Intrinsics.StdevPercentageLimit)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q",
			c.Logging.Level)
	}
	return nil
}
