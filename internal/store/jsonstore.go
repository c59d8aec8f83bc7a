package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONStore persists snapshots as an indented JSON file. Writes are atomic:
// the document goes to a temp file first and replaces the real one via
// rename, so a crash mid-write never corrupts the previous snapshot.
type JSONStore struct {
	path string
}

// NewJSONStore builds a store writing to the given file path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads and decodes the snapshot file. A missing file surfaces the
// underlying fs.ErrNotExist so callers can bootstrap a fresh state.
func (s *JSONStore) Load(_ context.Context) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(s.path)
	if err != nil {
		return snap, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Save writes the snapshot atomically.
func (s *JSONStore) Save(_ context.Context, snap Snapshot) error {
	snap.Meta.Storage = "json_snapshot"

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
