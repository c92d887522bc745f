// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	scenePath  string
	storePath  string
	outputDir  string

	rootCmd = &cobra.Command{
		Use:   "localba",
		Short: "Scheduling core for incremental local bundle adjustment",
		Long: `localba decides which poses, intrinsics, and landmarks an
incremental structure-from-motion solver should refine, hold constant,
or ignore on each optimization pass.`,
	}

	// --- Cycle ---
	cycleCmd = &cobra.Command{
		Use:   "cycle",
		Short: "Run one scheduling cycle over a scene snapshot and print the report",
		RunE:  runCycle, // Defined in cmd_cycle.go
	}

	// --- History ---
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Export the persisted focal-length history as K<id>.txt tables",
		RunE:  runHistory, // Defined in cmd_history.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file (defaults apply when omitted)")

	cycleCmd.Flags().StringVar(&scenePath, "scene", "",
		"Path to the scene snapshot JSON (required)")
	cycleCmd.Flags().StringVar(&outputDir, "out", "",
		"Directory for the timing report and history tables (omit to skip)")
	cycleCmd.MarkFlagRequired("scene")

	historyCmd.Flags().StringVar(&storePath, "store", "",
		"Path to the snapshot store directory (required)")
	historyCmd.Flags().StringVar(&outputDir, "out", ".",
		"Directory for the K<id>.txt tables")
	historyCmd.MarkFlagRequired("store")

	rootCmd.AddCommand(cycleCmd)
	rootCmd.AddCommand(historyCmd)
}
