package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
)

// pendingQueue implements driven.PendingQueue.
type pendingQueue struct {
	store *Store
	now   func() time.Time
}

var _ driven.PendingQueue = (*pendingQueue)(nil)

// ListPending returns incomplete tasks in creation order.
func (q *pendingQueue) ListPending(ctx context.Context) ([]domain.PendingIndexingTask, error) {
	rows, err := q.store.db.QueryContext(ctx, `
		SELECT id, collection_name, item_document_id, indexing_type, full_site_indexing, created_at, completed_at
		FROM pending_indexing_tasks
		WHERE completed_at IS NULL
		ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying pending tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.PendingIndexingTask //nolint:prealloc // size unknown from query
	for rows.Next() {
		var task domain.PendingIndexingTask
		var collection, itemID, createdAt, completedAt sql.NullString
		var fullSite int
		if err := rows.Scan(&task.ID, &collection, &itemID, &task.IndexingType,
			&fullSite, &createdAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning pending task: %w", err)
		}
		task.CollectionName = collection.String
		task.ItemDocumentID = itemID.String
		task.FullSiteIndexing = fullSite == 1
		task.CreatedAt = parseNullableTime(createdAt)
		task.CompletedAt = parseNullableTime(completedAt)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending tasks: %w", err)
	}
	return tasks, nil
}

// MarkComplete completes a task by id.
func (q *pendingQueue) MarkComplete(ctx context.Context, taskID string) error {
	_, err := q.store.db.ExecContext(ctx, `
		UPDATE pending_indexing_tasks SET completed_at = ?
		WHERE id = ? AND completed_at IS NULL
	`, formatTime(q.now()), taskID)
	if err != nil {
		return fmt.Errorf("completing task %s: %w", taskID, err)
	}
	return nil
}

// MarkCompleteByItemDocumentID completes every pending task for an item.
func (q *pendingQueue) MarkCompleteByItemDocumentID(ctx context.Context, itemDocumentID string) error {
	if itemDocumentID == "" {
		return domain.ErrInvalidInput
	}
	_, err := q.store.db.ExecContext(ctx, `
		UPDATE pending_indexing_tasks SET completed_at = ?
		WHERE item_document_id = ? AND completed_at IS NULL
	`, formatTime(q.now()), itemDocumentID)
	if err != nil {
		return fmt.Errorf("completing tasks of item %s: %w", itemDocumentID, err)
	}
	return nil
}

// Enqueue appends a task, assigning ID and CreatedAt when empty.
func (q *pendingQueue) Enqueue(ctx context.Context, task *domain.PendingIndexingTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = q.now()
	}

	_, err := q.store.db.ExecContext(ctx, `
		INSERT INTO pending_indexing_tasks
			(id, collection_name, item_document_id, indexing_type, full_site_indexing, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, task.ID, nullString(task.CollectionName), nullString(task.ItemDocumentID),
		string(task.IndexingType), boolToInt(task.FullSiteIndexing),
		formatTime(task.CreatedAt), formatNullableTime(task.CompletedAt))
	if err != nil {
		return fmt.Errorf("enqueueing task: %w", err)
	}
	return nil
}
