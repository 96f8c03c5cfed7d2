package domain

import "time"

// IndexingType is the action a pending task requests.
type IndexingType string

// Indexing types.
const (
	IndexingUpsert IndexingType = "upsert"
	IndexingRemove IndexingType = "remove-from-index"
)

// IsValid returns true if the indexing type is recognised.
func (t IndexingType) IsValid() bool {
	return t == IndexingUpsert || t == IndexingRemove
}

// PendingIndexingTask is one entry of the pending-work log.
type PendingIndexingTask struct {
	ID string

	// CollectionName is ignored when FullSiteIndexing is set.
	CollectionName string

	// ItemDocumentID targets a single record. Empty means the whole collection.
	ItemDocumentID string

	IndexingType IndexingType

	// FullSiteIndexing rebuilds every configured collection.
	FullSiteIndexing bool

	CreatedAt time.Time

	// CompletedAt is zero while the task is pending.
	CompletedAt time.Time
}

// IsPending reports whether the task has not been completed.
func (t PendingIndexingTask) IsPending() bool {
	return t.CompletedAt.IsZero()
}

// IsItemTask reports whether the task targets a single record.
func (t PendingIndexingTask) IsItemTask() bool {
	return t.ItemDocumentID != ""
}

// IsRemoval reports whether the task removes a record from the index.
func (t PendingIndexingTask) IsRemoval() bool {
	return t.IndexingType == IndexingRemove
}

// DrainResult summarises one queue-drain invocation.
type DrainResult struct {
	// Fetched is the number of pending tasks read.
	Fetched int

	// Completed is the number of tasks marked complete.
	Completed int

	// FullSite is true when a full-site task superseded the batch.
	FullSite bool

	// Rebuild is the full rebuild outcome when FullSite is true.
	Rebuild *FullRebuildResult

	// Error is the failure that aborted the loop, if any.
	Error string
}

// Success reports whether the drain ran to completion.
func (r *DrainResult) Success() bool {
	return r != nil && r.Error == ""
}
