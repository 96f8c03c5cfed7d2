package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
)

// fieldConfigStore implements driven.FieldConfigStore.
// Parsed configs are cached; the cache is invalidated on every write.
type fieldConfigStore struct {
	store *Store
	cache *lru.Cache[string, domain.CollectionConfig]
}

var _ driven.FieldConfigStore = (*fieldConfigStore)(nil)

func newFieldConfigStore(store *Store, cacheSize int) (*fieldConfigStore, error) {
	cache, err := lru.New[string, domain.CollectionConfig](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating config cache: %w", err)
	}
	return &fieldConfigStore{store: store, cache: cache}, nil
}

// GetCollectionConfig returns the rules of a collection, or an empty config.
func (s *fieldConfigStore) GetCollectionConfig(ctx context.Context, collection string) (domain.CollectionConfig, error) {
	if cfg, ok := s.cache.Get(collection); ok {
		return clone(cfg), nil
	}

	var raw string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT config FROM collection_configs WHERE collection_name = ?", collection).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CollectionConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config of %s: %w", collection, err)
	}

	cfg, err := domain.ParseCollectionConfig([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing config of %s: %w", collection, err)
	}
	if cfg == nil {
		cfg = domain.CollectionConfig{}
	}
	s.cache.Add(collection, cfg)
	return clone(cfg), nil
}

// SaveCollectionConfig replaces the rules of a collection.
// Saving an empty config deletes it.
func (s *fieldConfigStore) SaveCollectionConfig(ctx context.Context, collection string, cfg domain.CollectionConfig) error {
	if collection == "" {
		return domain.ErrCollectionRequired
	}
	if cfg.IsEmpty() {
		return s.DeleteCollectionConfig(ctx, collection)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config of %s: %w", collection, err)
	}

	s.cache.Remove(collection)
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO collection_configs (collection_name, config, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(collection_name) DO UPDATE SET
			config = excluded.config,
			updated_at = excluded.updated_at
	`, collection, string(raw), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("saving config of %s: %w", collection, err)
	}
	return nil
}

// DeleteCollectionConfig removes the rules of a collection.
func (s *fieldConfigStore) DeleteCollectionConfig(ctx context.Context, collection string) error {
	s.cache.Remove(collection)
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM collection_configs WHERE collection_name = ?", collection); err != nil {
		return fmt.Errorf("deleting config of %s: %w", collection, err)
	}
	return nil
}

// ListConfiguredCollections returns collections with at least one rule, sorted by name.
func (s *fieldConfigStore) ListConfiguredCollections(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT collection_name FROM collection_configs
		WHERE config NOT IN ('', '{}', 'null')
		ORDER BY collection_name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying configured collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating configured collections: %w", err)
	}
	return names, nil
}

// IsConfigured reports whether a collection has at least one rule.
func (s *fieldConfigStore) IsConfigured(ctx context.Context, collection string) (bool, error) {
	cfg, err := s.GetCollectionConfig(ctx, collection)
	if err != nil {
		return false, err
	}
	return !cfg.IsEmpty(), nil
}

func clone(cfg domain.CollectionConfig) domain.CollectionConfig {
	return append(domain.CollectionConfig{}, cfg...)
}
