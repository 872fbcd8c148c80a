// Package portfolio tracks account balance, realized profit and open
// positions, and produces the snapshots the risk core evaluates against.
package portfolio

import (
	"fmt"
	"sync"

	"github.com/tradelab/crypto-risk-engine/internal/position"
)

// Store is the persistence boundary for positions. Implementations must
// return positions in the canonical schema; records with legacy field names
// go through LegacyStoreAdapter first.
type Store interface {
	// GetPositions returns positions with the given status.
	GetPositions(status position.Status) ([]position.Position, error)

	// Save inserts or replaces a position by ID.
	Save(p position.Position) error

	// Get returns a position by ID.
	Get(id string) (position.Position, error)
}

// MemoryStore is an in-memory Store, used by the engine in test mode and by
// tests.
type MemoryStore struct {
	mu        sync.RWMutex
	positions map[string]position.Position
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{positions: make(map[string]position.Position)}
}

// GetPositions returns positions with the given status.
func (s *MemoryStore) GetPositions(status position.Status) ([]position.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]position.Position, 0, len(s.positions))
	for _, p := range s.positions {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

// Save inserts or replaces a position by ID.
func (s *MemoryStore) Save(p position.Position) error {
	if p.ID == "" {
		return fmt.Errorf("position has no ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[p.ID] = p
	return nil
}

// Get returns a position by ID.
func (s *MemoryStore) Get(id string) (position.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[id]
	if !ok {
		return position.Position{}, fmt.Errorf("position %s not found", id)
	}
	return p, nil
}

// RecordSource is a legacy position source that yields loosely-shaped
// records (quantity/contracts aliases, order-side vocabulary).
type RecordSource interface {
	Records() ([]map[string]interface{}, error)
}

// LegacyStoreAdapter wraps a RecordSource and normalizes every record into
// the canonical schema on the way out. It is read-only; writes go to the
// canonical store the adapter was migrated into.
type LegacyStoreAdapter struct {
	source RecordSource
}

// NewLegacyStoreAdapter wraps a legacy record source.
func NewLegacyStoreAdapter(source RecordSource) *LegacyStoreAdapter {
	return &LegacyStoreAdapter{source: source}
}

// GetPositions returns the normalized positions with the given status.
// A single malformed record fails the whole read; silently dropping records
// would understate exposure.
func (a *LegacyStoreAdapter) GetPositions(status position.Status) ([]position.Position, error) {
	recs, err := a.source.Records()
	if err != nil {
		return nil, fmt.Errorf("legacy source: %w", err)
	}

	out := make([]position.Position, 0, len(recs))
	for i, rec := range recs {
		p, err := position.FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("legacy record %d: %w", i, err)
		}
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}
