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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/localba/scene"
)

// Key layout inside BadgerDB. Zero-padded decimal keeps byte order equal
// to numeric order, so iteration replays snapshots chronologically.
const (
	historyKeyFormat  = "history/%010d/%012d"
	historyScanFormat = "history/%d/%d"
	frozenKeyFormat   = "frozen/%010d"
	frozenScanFormat  = "frozen/%d"
	historyPrefix     = "history/"
	frozenPrefix      = "frozen/"
)

// StoreConfig holds configuration for a SnapshotStore.
type StoreConfig struct {
	// Path is the directory for BadgerDB files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. If nil, BadgerDB
	// logging is disabled.
	Logger *slog.Logger
}

// DefaultStoreConfig returns sensible defaults for production use.
func DefaultStoreConfig(path string) StoreConfig {
	return StoreConfig{
		Path:       path,
		SyncWrites: true,
	}
}

// InMemoryStoreConfig returns configuration optimized for testing.
func InMemoryStoreConfig() StoreConfig {
	return StoreConfig{
		InMemory: true,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// SnapshotStore persists the intrinsics history and frozen flags so a
// restarted pipeline resumes convergence tracking where it left off.
//
// # Description
//
// Each Record snapshot is appended under a monotonically increasing
// sequence key; frozen flags live under their own prefix. Load replays
// everything into a Tracker in chronological order.
//
// # Thread Safety
//
// NOT safe for concurrent use; the scheduling cycle owns the store the
// same way it owns the Tracker.
type SnapshotStore struct {
	db      *badger.DB
	nextSeq map[scene.IntrinsicID]uint64
}

// OpenStore opens (or creates) a snapshot store.
//
// Inputs:
//
//	cfg - Store configuration. Path is required unless InMemory is true.
//
// Outputs:
//
//	*SnapshotStore - The opened store. Caller must Close it.
//	error - Non-nil if the database cannot be opened.
func OpenStore(cfg StoreConfig) (*SnapshotStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	s := &SnapshotStore{
		db:      db,
		nextSeq: make(map[scene.IntrinsicID]uint64),
	}
	if err := s.initSequences(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// initSequences scans existing history keys to restore per-intrinsic
// append positions.
func (s *SnapshotStore) initSequences() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(historyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var id scene.IntrinsicID
			var seq uint64
			key := string(it.Item().Key())
			if _, err := fmt.Sscanf(key, historyScanFormat, &id, &seq); err != nil {
				return fmt.Errorf("malformed history key %q: %w", key, err)
			}
			if seq >= s.nextSeq[id] {
				s.nextSeq[id] = seq + 1
			}
		}
		return nil
	})
}

// Append persists one snapshot for the intrinsic.
func (s *SnapshotStore) Append(id scene.IntrinsicID, sample Sample) error {
	value, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshal snapshot for intrinsic %d: %w", id, err)
	}

	key := fmt.Sprintf(historyKeyFormat, id, s.nextSeq[id])
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("append snapshot for intrinsic %d: %w", id, err)
	}
	s.nextSeq[id]++
	return nil
}

// MarkFrozen persists the sticky frozen flag for the intrinsic.
func (s *SnapshotStore) MarkFrozen(id scene.IntrinsicID) error {
	key := fmt.Sprintf(frozenKeyFormat, id)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte{1})
	})
	if err != nil {
		return fmt.Errorf("mark intrinsic %d frozen: %w", id, err)
	}
	return nil
}

// Load replays the persisted history and frozen flags into the tracker.
//
// Description:
//
//	Snapshots are replayed in key order, which is chronological per
//	intrinsic. Load is additive: it assumes a freshly created Tracker.
//
// Inputs:
//
//	t - Destination tracker, normally empty.
//
// Outputs:
//
//	error - Non-nil on a malformed key or value; the tracker may be
//	partially populated in that case and should be discarded.
func (s *SnapshotStore) Load(t *Tracker) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(historyPrefix)
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			var id scene.IntrinsicID
			var seq uint64
			key := string(it.Item().Key())
			if _, err := fmt.Sscanf(key, historyScanFormat, &id, &seq); err != nil {
				it.Close()
				return fmt.Errorf("malformed history key %q: %w", key, err)
			}
			err := it.Item().Value(func(val []byte) error {
				var sample Sample
				if err := json.Unmarshal(val, &sample); err != nil {
					return fmt.Errorf("malformed snapshot %q: %w", key, err)
				}
				t.Record(id, sample.PoseCount, sample.Focal)
				return nil
			})
			if err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		frozenOpts := badger.DefaultIteratorOptions
		frozenOpts.PrefetchValues = false
		frozenOpts.Prefix = []byte(frozenPrefix)
		fit := txn.NewIterator(frozenOpts)
		defer fit.Close()
		for fit.Rewind(); fit.Valid(); fit.Next() {
			var id scene.IntrinsicID
			key := string(fit.Item().Key())
			if _, err := fmt.Sscanf(key, frozenScanFormat, &id); err != nil {
				return fmt.Errorf("malformed frozen key %q: %w", key, err)
			}
			t.Freeze(id)
		}
		return nil
	})
}
