package driving

import (
	"context"

	"github.com/emonupg/essync/internal/core/domain"
)

// CollectionStatus describes one collection for listing.
type CollectionStatus struct {
	Name       string
	Configured bool

	// Record is nil when the collection has never been rebuilt.
	Record *domain.CollectionIndexRecord

	// LiveRecords is how many records a rebuild would index.
	// Nil when the collection is missing from the repository or could not be counted.
	LiveRecords *int
}

// CollectionService manages per-collection indexing configuration.
type CollectionService interface {
	// List returns every repository collection with its configuration state.
	List(ctx context.Context) ([]CollectionStatus, error)

	// GetConfig returns the field configuration of a collection.
	GetConfig(ctx context.Context, collection string) (domain.CollectionConfig, error)

	// SetConfig validates and stores the field configuration of a collection.
	SetConfig(ctx context.Context, collection string, cfg domain.CollectionConfig) error
}
