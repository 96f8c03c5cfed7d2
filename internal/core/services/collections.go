package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/core/ports/driving"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService manages per-collection field configuration.
type CollectionService struct {
	content  driven.ContentRepository
	configs  driven.FieldConfigStore
	registry driven.IndexRegistry
}

// NewCollectionService creates a new collection service.
func NewCollectionService(
	content driven.ContentRepository,
	configs driven.FieldConfigStore,
	registry driven.IndexRegistry,
) *CollectionService {
	return &CollectionService{
		content:  content,
		configs:  configs,
		registry: registry,
	}
}

// List returns every repository collection with its configuration state.
// Configured collections that no longer exist in the repository are included.
func (s *CollectionService) List(ctx context.Context) ([]driving.CollectionStatus, error) {
	names, err := s.content.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	configured, err := s.configs.ListConfiguredCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list configured collections: %w", err)
	}
	records, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list index registry: %w", err)
	}

	isConfigured := make(map[string]bool, len(configured))
	for _, name := range configured {
		isConfigured[name] = true
	}
	byName := make(map[string]domain.CollectionIndexRecord, len(records))
	for _, rec := range records {
		byName[rec.CollectionName] = rec
	}

	seen := make(map[string]bool, len(names))
	out := make([]driving.CollectionStatus, 0, len(names))
	add := func(name string, live *int) {
		if seen[name] {
			return
		}
		seen[name] = true
		status := driving.CollectionStatus{Name: name, Configured: isConfigured[name], LiveRecords: live}
		if rec, ok := byName[name]; ok {
			status.Record = &rec
		}
		out = append(out, status)
	}
	for _, name := range names {
		add(name, s.liveRecords(ctx, name))
	}
	for _, name := range configured {
		if !seen[name] {
			logger.Warn("Collection %s is configured but missing from the content repository", name)
		}
		add(name, nil)
	}

	return out, nil
}

// liveRecords counts the records a rebuild of collection would index.
func (s *CollectionService) liveRecords(ctx context.Context, collection string) *int {
	schema, err := s.content.Schema(ctx, collection)
	if err != nil {
		logger.Debug("Schema of %s unavailable: %v", collection, err)
		return nil
	}
	n, err := s.content.Count(ctx, collection, domain.LiveRecordOptions(schema, nil))
	if err != nil {
		logger.Warn("Count records of %s: %v", collection, err)
		return nil
	}
	return &n
}

// GetConfig returns the field configuration of a collection.
func (s *CollectionService) GetConfig(ctx context.Context, collection string) (domain.CollectionConfig, error) {
	if collection == "" {
		return nil, domain.ErrCollectionRequired
	}
	cfg, err := s.configs.GetCollectionConfig(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("get config %s: %w", collection, err)
	}
	return cfg, nil
}

// SetConfig validates and stores the field configuration of a collection.
// Every attribute must exist in the collection schema. An empty config
// removes the collection from indexing.
func (s *CollectionService) SetConfig(ctx context.Context, collection string, cfg domain.CollectionConfig) error {
	if collection == "" {
		return domain.ErrCollectionRequired
	}

	schema, err := s.content.Schema(ctx, collection)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCollection) {
			return domain.ConfigurationError("set config", collection, err)
		}
		return fmt.Errorf("load schema %s: %w", collection, err)
	}

	if cfg.IsEmpty() {
		if err := s.configs.DeleteCollectionConfig(ctx, collection); err != nil {
			return fmt.Errorf("delete config %s: %w", collection, err)
		}
		logger.Info("Removed indexing configuration of %s", collection)
		return nil
	}

	for _, ac := range cfg {
		if _, ok := schema.Attributes[ac.Attribute]; !ok {
			return fmt.Errorf("attribute %s of %s: %w", ac.Attribute, collection, domain.ErrInvalidInput)
		}
	}

	if err := s.configs.SaveCollectionConfig(ctx, collection, cfg); err != nil {
		return fmt.Errorf("save config %s: %w", collection, err)
	}
	logger.Info("Saved indexing configuration of %s (%d attributes)", collection, len(cfg))
	return nil
}
