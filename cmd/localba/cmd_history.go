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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/localba/intrinsics"
)

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := intrinsics.OpenStore(intrinsics.DefaultStoreConfig(storePath))
	if err != nil {
		return err
	}
	defer store.Close()

	tracker := intrinsics.NewTracker()
	if err := store.Load(tracker); err != nil {
		return err
	}
	if err := tracker.ExportHistory(outputDir); err != nil {
		return err
	}

	for _, id := range tracker.IDs() {
		focal, _ := tracker.LastFocal(id)
		status := ""
		if tracker.IsFrozen(id) {
			status = " (frozen)"
		}
		fmt.Printf("K%d: %d snapshot(s), last focal %.3f%s\n",
			id, len(tracker.History(id)), focal, status)
	}
	return nil
}
