package driven

import (
	"context"

	"github.com/emonupg/essync/internal/core/domain"
)

// FieldConfigStore persists per-collection field indexing rules.
type FieldConfigStore interface {
	// GetCollectionConfig returns the rules of a collection.
	// Returns an empty config and no error when the collection has none.
	GetCollectionConfig(ctx context.Context, collection string) (domain.CollectionConfig, error)

	// SaveCollectionConfig replaces the rules of a collection.
	SaveCollectionConfig(ctx context.Context, collection string, cfg domain.CollectionConfig) error

	// DeleteCollectionConfig removes the rules of a collection.
	DeleteCollectionConfig(ctx context.Context, collection string) error

	// ListConfiguredCollections returns collections with at least one rule, sorted by name.
	ListConfiguredCollections(ctx context.Context) ([]string, error)

	// IsConfigured reports whether a collection has at least one rule.
	IsConfigured(ctx context.Context, collection string) (bool, error)
}

// IndexRegistry persists the collection to physical index mapping.
type IndexRegistry interface {
	// Get returns the record of a collection. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, collection string) (*domain.CollectionIndexRecord, error)

	// Save creates or replaces the record of a collection.
	Save(ctx context.Context, record domain.CollectionIndexRecord) error

	// List returns all records sorted by collection name.
	List(ctx context.Context) ([]domain.CollectionIndexRecord, error)
}

// PendingQueue is the append-only pending-work log.
type PendingQueue interface {
	// ListPending returns incomplete tasks in creation order.
	ListPending(ctx context.Context) ([]domain.PendingIndexingTask, error)

	// MarkComplete completes a task by id.
	MarkComplete(ctx context.Context, taskID string) error

	// MarkCompleteByItemDocumentID completes every pending task for an item.
	MarkCompleteByItemDocumentID(ctx context.Context, itemDocumentID string) error

	// Enqueue appends a task, assigning ID and CreatedAt when empty.
	Enqueue(ctx context.Context, task *domain.PendingIndexingTask) error
}

// LogSink records indexing outcomes. Failures to record never block callers.
type LogSink interface {
	// RecordPass records a successful run.
	RecordPass(ctx context.Context, message string)

	// RecordFail records a failed run.
	RecordFail(ctx context.Context, message string)

	// Recent returns the newest entries first.
	Recent(ctx context.Context, limit int) ([]domain.LogEntry, error)
}

// RebuildLocker guards rebuilds of the same collection across processes.
type RebuildLocker interface {
	// TryLock acquires the collection lock without blocking.
	// Returns domain.ErrRebuildInProgress when it is held elsewhere.
	TryLock(collection string) (unlock func(), err error)
}

// Transformers applies named value transforms.
type Transformers interface {
	// Apply transforms value with the named transform.
	// The second result is false when no transform has that name.
	Apply(name string, value any) (any, bool)
}
