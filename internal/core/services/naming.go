package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/core/ports/driving"
)

// Ensure IndexNamer implements the interface.
var _ driving.IndexNamer = (*IndexNamer)(nil)

// IndexNamer derives physical index names from the index registry.
type IndexNamer struct {
	registry driven.IndexRegistry
}

// NewIndexNamer creates a namer backed by registry.
func NewIndexNamer(registry driven.IndexRegistry) *IndexNamer {
	return &IndexNamer{registry: registry}
}

// CurrentIndexName returns the registry's index for collection, or the
// first synthesised name when there is no record.
func (n *IndexNamer) CurrentIndexName(ctx context.Context, collection string) (string, error) {
	if collection == "" {
		return "", domain.ConfigurationError("current index name", "", domain.ErrCollectionRequired)
	}
	record, err := n.registry.Get(ctx, collection)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.DefaultIndexName(collection), nil
	case err != nil:
		return "", fmt.Errorf("get registry record: %w", err)
	case record == nil || record.CurrentIndexName == "":
		return domain.DefaultIndexName(collection), nil
	}
	return record.CurrentIndexName, nil
}

// IncrementedIndexName returns the name the next rebuild of collection writes to.
func (n *IndexNamer) IncrementedIndexName(ctx context.Context, collection string) (string, error) {
	if collection == "" {
		return "", domain.ConfigurationError("incremented index name", "", domain.ErrCollectionRequired)
	}
	current, err := n.CurrentIndexName(ctx, collection)
	if err != nil {
		return "", err
	}
	next, err := domain.NextIndexName(current)
	if err != nil {
		return "", domain.ConfigurationError("incremented index name", collection, err)
	}
	return next, nil
}
