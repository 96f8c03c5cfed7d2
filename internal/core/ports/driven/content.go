package driven

import (
	"context"

	"github.com/emonupg/essync/internal/core/domain"
)

// ContentRepository is read-only access to the system of record.
type ContentRepository interface {
	// Schema describes a collection. Returns domain.ErrUnknownCollection when absent.
	Schema(ctx context.Context, collection string) (*domain.CollectionSchema, error)

	// FindMany returns all matching records of a collection.
	FindMany(ctx context.Context, collection string, opts domain.FindOptions) ([]domain.ContentRecord, error)

	// FindOne returns a single record by its document id.
	// Returns domain.ErrNotFound when absent.
	FindOne(ctx context.Context, collection, documentID string, populate map[string]any) (domain.ContentRecord, error)

	// Count returns the number of matching records of a collection.
	Count(ctx context.Context, collection string, opts domain.FindOptions) (int, error)

	// Collections returns the uids of every collection, sorted.
	Collections(ctx context.Context) ([]string, error)
}
