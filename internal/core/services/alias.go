package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/logger"
)

// AliasResolver computes alias names and maintains the global alias.
type AliasResolver struct {
	engine      driven.SearchEngine
	registry    driven.IndexRegistry
	globalAlias string
}

// NewAliasResolver creates a resolver. An empty globalAlias uses domain.DefaultGlobalAlias.
func NewAliasResolver(engine driven.SearchEngine, registry driven.IndexRegistry, globalAlias string) *AliasResolver {
	if globalAlias == "" {
		globalAlias = domain.DefaultGlobalAlias
	}
	return &AliasResolver{
		engine:      engine,
		registry:    registry,
		globalAlias: globalAlias,
	}
}

// CollectionAlias returns the stable alias of a collection.
func (r *AliasResolver) CollectionAlias(collection string) string {
	return domain.CollectionAlias(collection)
}

// GlobalAlias returns the alias spanning all collections.
func (r *AliasResolver) GlobalAlias() string {
	return r.globalAlias
}

// SwapActions returns the atomic actions moving alias from oldIndex to newIndex.
// The remove action is only included when oldIndex still exists.
func (r *AliasResolver) SwapActions(ctx context.Context, alias, oldIndex, newIndex string) ([]driven.AliasAction, error) {
	var actions []driven.AliasAction
	if oldIndex != "" && oldIndex != newIndex {
		exists, err := r.engine.IndexExists(ctx, oldIndex)
		if err != nil {
			return nil, fmt.Errorf("check old index %s: %w", oldIndex, err)
		}
		if exists {
			actions = append(actions, driven.RemoveAlias(oldIndex, alias))
		}
	}
	return append(actions, driven.AddAlias(newIndex, alias)), nil
}

// UpdateGlobalAlias points the global alias at every registered index that exists.
// It is best-effort: failures come back as a warning, never an error.
func (r *AliasResolver) UpdateGlobalAlias(ctx context.Context) *domain.Warning {
	records, err := r.registry.List(ctx)
	if err != nil {
		return domain.NewWarning("update global alias", fmt.Errorf("list registry: %w", err))
	}

	indices := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.CurrentIndexName == "" {
			continue
		}
		exists, err := r.engine.IndexExists(ctx, rec.CurrentIndexName)
		if err != nil {
			return domain.NewWarning("update global alias", fmt.Errorf("check index %s: %w", rec.CurrentIndexName, err))
		}
		if exists {
			indices = append(indices, rec.CurrentIndexName)
		}
	}
	if len(indices) == 0 {
		logger.Warn("No existing collection indices; global alias %s left unchanged", r.globalAlias)
		return domain.NewWarning("update global alias", fmt.Errorf("no existing indices for %s", r.globalAlias))
	}
	sort.Strings(indices)

	// The alias is a single atomic rewrite: drop it everywhere, then re-add.
	var actions []driven.AliasAction
	exists, err := r.engine.AliasExists(ctx, r.globalAlias)
	if err != nil {
		return domain.NewWarning("update global alias", fmt.Errorf("check alias: %w", err))
	}
	if exists {
		actions = append(actions, driven.RemoveAlias("*", r.globalAlias))
	}
	for _, idx := range indices {
		actions = append(actions, driven.AddAlias(idx, r.globalAlias))
	}
	if err := r.engine.UpdateAliases(ctx, actions); err != nil {
		return domain.NewWarning("update global alias", err)
	}

	logger.Info("Global alias %s now spans %d indices", r.globalAlias, len(indices))
	return nil
}

// SearchTarget picks the alias a search should run against: the collection alias
// when a collection is given, else the global alias if it exists, else fallback.
func (r *AliasResolver) SearchTarget(ctx context.Context, collection, fallback string) (string, error) {
	if collection != "" {
		return r.CollectionAlias(collection), nil
	}
	exists, err := r.engine.AliasExists(ctx, r.globalAlias)
	if err != nil {
		return "", fmt.Errorf("check global alias: %w", err)
	}
	if exists || fallback == "" {
		return r.globalAlias, nil
	}
	return fallback, nil
}
