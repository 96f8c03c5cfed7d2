package driving

import (
	"context"

	"github.com/emonupg/essync/internal/core/domain"
)

// RebuildOrchestrator rebuilds collection indices without search downtime.
type RebuildOrchestrator interface {
	// RebuildCollection builds a fresh versioned index for one collection, validates
	// it and moves the collection alias onto it.
	// Configuration failures are returned as errors; failures from index creation
	// onward are reported through the result.
	RebuildCollection(ctx context.Context, collection string) (*domain.RebuildResult, error)

	// RebuildAll rebuilds every configured collection.
	RebuildAll(ctx context.Context) (*domain.FullRebuildResult, error)

	// IndexCollection writes every live record of a collection into index.
	// An empty index writes into the collection's current index.
	// Returns the number of documents written.
	IndexCollection(ctx context.Context, collection, index string) (int, error)
}

// RebuildValidator checks a freshly built index against the content repository.
type RebuildValidator interface {
	// ValidateRebuild runs existence, count and sample checks against index.
	ValidateRebuild(ctx context.Context, collection, index string) (*domain.ValidationResult, error)
}

// IndexNamer derives physical index names for collections.
type IndexNamer interface {
	// CurrentIndexName returns the live index of a collection, or the first
	// synthesised name when the collection was never rebuilt.
	CurrentIndexName(ctx context.Context, collection string) (string, error)

	// IncrementedIndexName returns the next versioned index name.
	IncrementedIndexName(ctx context.Context, collection string) (string, error)
}
