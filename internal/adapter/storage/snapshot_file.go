// internal/adapter/storage/snapshot_file.go

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"trendscope/internal/domain/trend"
)

// FileSnapshotStore persists the trend snapshot as a single JSON file.
// The file is replaced wholesale on every save via a temp-file rename,
// so readers never observe a partially-written snapshot.
type FileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore creates a file-backed snapshot store.
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// Load reads the persisted snapshot. A missing file means no snapshot
// has been persisted yet and returns (nil, nil).
func (s *FileSnapshotStore) Load(ctx context.Context) (*trend.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading snapshot file: %w", err)
	}

	var snapshot trend.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("error parsing snapshot file: %w", err)
	}
	return &snapshot, nil
}

// Save overwrites the persisted snapshot.
func (s *FileSnapshotStore) Save(ctx context.Context, snapshot trend.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("error creating snapshot directory: %w", err)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("error marshaling snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("error writing snapshot file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("error replacing snapshot file: %w", err)
	}
	return nil
}
