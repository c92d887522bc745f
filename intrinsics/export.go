// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package intrinsics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AleutianAI/localba/scene"
)

// ExportHistory writes one text table per intrinsic into dir.
//
// Description:
//
//	Each intrinsic produces a file K<id>.txt with one line per
//	snapshot: the contributing pose count and the focal length,
//	separated by a space. The tables are diagnostics for plotting the
//	focal-length evolution; nothing downstream consumes them.
//
// Inputs:
//
//	dir - Destination directory, created if missing.
//
// Outputs:
//
//	error - Non-nil if the directory or a file cannot be written.
func (t *Tracker) ExportHistory(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create history directory %s: %w", dir, err)
	}

	for _, id := range t.IDs() {
		path := filepath.Join(dir, fmt.Sprintf("K%d.txt", id))
		if err := t.exportOne(id, path); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) exportOne(id scene.IntrinsicID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create history file %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	for _, s := range t.history[id] {
		fmt.Fprintf(w, "%d %.6f\n", s.PoseCount, s.Focal)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write history file %s: %w", path, err)
	}
	return f.Close()
}
