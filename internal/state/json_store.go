package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultStateFileName is the relative path used when no override is
// configured (spec §6 sync.stateFile) and sync.stateBackend is "json".
const DefaultStateFileName = ".consync/state.json"

// DefaultSQLiteStateFileName is the relative path used when
// sync.stateBackend is "sqlite" and sync.stateFile is unset.
const DefaultSQLiteStateFileName = ".consync/state.db"

// JSONFileStore persists SyncState as a single JSON file, written with
// write-to-temp-then-rename semantics so a reader never observes a torn
// file — the teacher's own fs.SaveState writes directly with os.WriteFile;
// this closes that gap per the spec's explicit atomic-write contract.
type JSONFileStore struct {
	Path string
}

// NewJSONFileStore returns a store bound to path.
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{Path: path}
}

// Load implements Store. A missing file, an unparsable file, or a
// space-key mismatch all yield an empty state bound to the requested
// arguments rather than an error.
func (s *JSONFileStore) Load(_ context.Context, spaceKey, rootPageID string) (SyncState, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return Empty(spaceKey, rootPageID), nil
	}

	var loaded SyncState
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return Empty(spaceKey, rootPageID), nil
	}
	if loaded.SpaceKey != spaceKey {
		return Empty(spaceKey, rootPageID), nil
	}
	if loaded.Pages == nil {
		loaded.Pages = map[string]PageState{}
	}
	return loaded, nil
}

// Save implements Store, writing state atomically. The executor may call
// Save with an incomplete page map after a failure; Save never rejects a
// non-final state.
func (s *JSONFileStore) Save(_ context.Context, st SyncState) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: create state directory %s: %w", dir, err)
	}

	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("state: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("state: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("state: rename temp file into place: %w", err)
	}
	return nil
}

// Reset implements Store, removing the state file if it exists.
func (s *JSONFileStore) Reset(_ context.Context) error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("state: remove state file: %w", err)
	}
	return nil
}
