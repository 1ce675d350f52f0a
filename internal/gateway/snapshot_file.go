package gateway

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"ledger-reconciliation/internal/domain"
)

// LoadSnapshot reads an exported ledger backup from path.
func LoadSnapshot(path string) (domain.ExportSnapshot, error) {
	var snapshot domain.ExportSnapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot, fmt.Errorf("failed to open snapshot file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return snapshot, fmt.Errorf("could not decode snapshot %s: %w", path, err)
	}
	return snapshot, nil
}

// WriteSnapshot writes snapshot to path as indented JSON.
func WriteSnapshot(path string, snapshot domain.ExportSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot file %s: %w", path, err)
	}
	return nil
}

// SnapshotFile is a ledger backed by an exported backup on disk. Reads and
// writes go to memory; Save persists the current state back to the file.
type SnapshotFile struct {
	*MemoryLedger
	path     string
	original domain.ExportSnapshot
}

// OpenSnapshotFile loads the backup at path into memory.
func OpenSnapshotFile(path string) (*SnapshotFile, error) {
	snapshot, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return &SnapshotFile{
		MemoryLedger: NewMemoryLedgerFromSnapshot(snapshot),
		path:         path,
		original:     snapshot,
	}, nil
}

// Save writes the ledger back to its file, keeping the original version
// and rules.
func (f *SnapshotFile) Save() error {
	snapshot := f.Snapshot()
	snapshot.Version = f.original.Version
	snapshot.Rules = f.original.Rules
	snapshot.ExportedAt = time.Now().UTC()
	return WriteSnapshot(f.path, snapshot)
}
