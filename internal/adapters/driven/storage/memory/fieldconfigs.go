package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
)

// Ensure FieldConfigStore implements the interface.
var _ driven.FieldConfigStore = (*FieldConfigStore)(nil)

// FieldConfigStore is an in-memory implementation of driven.FieldConfigStore.
type FieldConfigStore struct {
	mu      sync.RWMutex
	configs map[string]domain.CollectionConfig
}

// NewFieldConfigStore creates a new in-memory field config store.
func NewFieldConfigStore() *FieldConfigStore {
	return &FieldConfigStore{
		configs: make(map[string]domain.CollectionConfig),
	}
}

// GetCollectionConfig returns a copy of the rules of a collection.
func (s *FieldConfigStore) GetCollectionConfig(_ context.Context, collection string) (domain.CollectionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.configs[collection]
	if cfg == nil {
		return domain.CollectionConfig{}, nil
	}
	return append(domain.CollectionConfig(nil), cfg...), nil
}

// SaveCollectionConfig replaces the rules of a collection.
func (s *FieldConfigStore) SaveCollectionConfig(_ context.Context, collection string, cfg domain.CollectionConfig) error {
	if collection == "" {
		return domain.ErrCollectionRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[collection] = append(domain.CollectionConfig(nil), cfg...)
	return nil
}

// DeleteCollectionConfig removes the rules of a collection.
func (s *FieldConfigStore) DeleteCollectionConfig(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.configs, collection)
	return nil
}

// ListConfiguredCollections returns collections with at least one rule.
func (s *FieldConfigStore) ListConfiguredCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.configs))
	for name, cfg := range s.configs {
		if !cfg.IsEmpty() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// IsConfigured reports whether a collection has at least one rule.
func (s *FieldConfigStore) IsConfigured(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.configs[collection].IsEmpty(), nil
}
