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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/localba"
	"github.com/AleutianAI/localba/config"
	"github.com/AleutianAI/localba/pkg/logging"
	"github.com/AleutianAI/localba/scene"
	"github.com/AleutianAI/localba/sched"
)

// sceneFile is the on-disk snapshot format. Pairs are flattened to a
// list because JSON objects cannot key on a struct.
type sceneFile struct {
	Reconstruction scene.Reconstruction `json:"reconstruction"`
	Frontier       []scene.ViewID       `json:"frontier"`
	SharedMatches  []sharedMatch        `json:"shared_matches"`
}

type sharedMatch struct {
	I     scene.ViewID `json:"i"`
	J     scene.ViewID `json:"j"`
	Count int          `json:"count"`
}

func loadScene(path string) (*sceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	var sf sceneFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return &sf, nil
}

func runCycle(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "localba",
		JSON:    cfg.Logging.JSON,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	sf, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	shared := make(map[scene.Pair]int, len(sf.SharedMatches))
	for _, m := range sf.SharedMatches {
		shared[scene.MakePair(m.I, m.J)] = m.Count
	}

	engine, err := localba.NewEngine(
		localba.WithDistanceLimit(cfg.Scheduling.DistanceLimit),
		localba.WithMinSharedLandmarks(cfg.Graph.MinSharedLandmarks),
		localba.WithConvergence(cfg.Intrinsics.WindowSize, cfg.Intrinsics.StdevPercentageLimit),
		localba.WithLogger(logger.Logger),
	)
	if err != nil {
		return err
	}

	result, err := engine.RunCycle(cmd.Context(), &sf.Reconstruction, sf.Frontier, shared)
	if err != nil {
		return err
	}

	printReport(result)

	if outputDir != "" {
		if _, err := engine.RecordIntrinsics(&sf.Reconstruction); err != nil {
			return err
		}
		if err := engine.ExportHistory(filepath.Join(outputDir, "intrinsics")); err != nil {
			return err
		}
		if err := engine.Timer().ExportFile(filepath.Join(outputDir, "timing.txt")); err != nil {
			return err
		}
	}
	return nil
}

func printReport(result *localba.CycleResult) {
	fmt.Printf("graph: %d node(s) added, %d match edge(s) added, %d coupling edge(s)\n",
		result.Update.NodesAdded, result.Update.EdgesAdded, result.CouplingEdges)

	fmt.Println("views per distance:")
	hist := result.ViewDistances.Histogram()
	distances := make([]int, 0, len(hist))
	for d := range hist {
		distances = append(distances, d)
	}
	sort.Ints(distances)
	for _, d := range distances {
		label := fmt.Sprintf("%d", d)
		if d < 0 {
			label = "unreachable"
		}
		fmt.Printf("  %-12s %d\n", label, hist[d])
	}

	printCounts := func(kind string, c sched.StateCounts) {
		fmt.Printf("  %-11s %5d refined %5d constant %5d ignored\n",
			kind, c.Refined, c.Constant, c.Ignored)
	}
	fmt.Println("states:")
	printCounts("poses", result.PoseCounts)
	printCounts("intrinsics", result.IntrinsicCounts)
	printCounts("landmarks", result.LandmarkCounts)
}
