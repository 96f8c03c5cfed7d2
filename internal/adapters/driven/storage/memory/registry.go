package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
)

// Ensure IndexRegistry implements the interface.
var _ driven.IndexRegistry = (*IndexRegistry)(nil)

// IndexRegistry is an in-memory implementation of driven.IndexRegistry.
type IndexRegistry struct {
	mu      sync.RWMutex
	records map[string]domain.CollectionIndexRecord
}

// NewIndexRegistry creates a new in-memory index registry.
func NewIndexRegistry() *IndexRegistry {
	return &IndexRegistry{
		records: make(map[string]domain.CollectionIndexRecord),
	}
}

// Get retrieves the record of a collection.
func (r *IndexRegistry) Get(_ context.Context, collection string) (*domain.CollectionIndexRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Save stores or replaces the record of a collection.
func (r *IndexRegistry) Save(_ context.Context, record domain.CollectionIndexRecord) error {
	if record.CollectionName == "" {
		return domain.ErrCollectionRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.CollectionName] = record
	return nil
}

// List returns all records sorted by collection name.
func (r *IndexRegistry) List(_ context.Context) ([]domain.CollectionIndexRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.CollectionIndexRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CollectionName < out[j].CollectionName
	})
	return out, nil
}
