package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tradelab/crypto-risk-engine/internal/position"
)

// fileState is the on-disk shape of a FileStore.
type fileState struct {
	Positions   []position.Position `json:"positions"`
	LastUpdated time.Time           `json:"last_updated"`
	Version     string              `json:"version"`
}

// FileStore is a JSON-file-backed Store. Writes go to a temporary file first
// and are renamed into place so a crash never leaves a torn state file.
type FileStore struct {
	mu        sync.RWMutex
	filePath  string
	positions map[string]position.Position
	loaded    bool
}

// NewFileStore creates a store persisting to the given path, creating the
// parent directory if needed.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		filePath = "positions_state.json"
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return &FileStore{
		filePath:  filePath,
		positions: make(map[string]position.Position),
	}, nil
}

// GetPositions returns positions with the given status.
func (f *FileStore) GetPositions(status position.Status) ([]position.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return nil, err
	}

	out := make([]position.Position, 0, len(f.positions))
	for _, p := range f.positions {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

// Save inserts or replaces a position by ID and persists the store.
func (f *FileStore) Save(p position.Position) error {
	if p.ID == "" {
		return fmt.Errorf("position has no ID")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return err
	}
	f.positions[p.ID] = p
	return f.flushLocked()
}

// Get returns a position by ID.
func (f *FileStore) Get(id string) (position.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return position.Position{}, err
	}
	p, ok := f.positions[id]
	if !ok {
		return position.Position{}, fmt.Errorf("position %s not found", id)
	}
	return p, nil
}

// loadLocked reads the state file once. A missing file is an empty store.
func (f *FileStore) loadLocked() error {
	if f.loaded {
		return nil
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			f.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file %s: %w", f.filePath, err)
	}

	for _, p := range state.Positions {
		f.positions[p.ID] = p
	}
	f.loaded = true
	return nil
}

// flushLocked writes the full state atomically.
func (f *FileStore) flushLocked() error {
	state := fileState{
		Positions:   make([]position.Position, 0, len(f.positions)),
		LastUpdated: time.Now().UTC(),
		Version:     "1.0",
	}
	for _, p := range f.positions {
		state.Positions = append(state.Positions, p)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tempFile := f.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tempFile, f.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
