package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
)

// Ensure PendingQueue implements the interface.
var _ driven.PendingQueue = (*PendingQueue)(nil)

// PendingQueue is an in-memory implementation of driven.PendingQueue.
// Tasks are kept in insertion order.
type PendingQueue struct {
	mu    sync.Mutex
	tasks []domain.PendingIndexingTask
	now   func() time.Time
}

// NewPendingQueue creates a new in-memory pending queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{now: time.Now}
}

// ListPending returns incomplete tasks in creation order.
func (q *PendingQueue) ListPending(_ context.Context) ([]domain.PendingIndexingTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.PendingIndexingTask
	for _, t := range q.tasks {
		if t.IsPending() {
			out = append(out, t)
		}
	}
	return out, nil
}

// MarkComplete completes a task by id. Unknown ids are ignored.
func (q *PendingQueue) MarkComplete(_ context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.tasks {
		if q.tasks[i].ID == taskID && q.tasks[i].IsPending() {
			q.tasks[i].CompletedAt = q.now()
		}
	}
	return nil
}

// MarkCompleteByItemDocumentID completes every pending task for an item.
func (q *PendingQueue) MarkCompleteByItemDocumentID(_ context.Context, itemDocumentID string) error {
	if itemDocumentID == "" {
		return domain.ErrInvalidInput
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	for i := range q.tasks {
		if q.tasks[i].ItemDocumentID == itemDocumentID && q.tasks[i].IsPending() {
			q.tasks[i].CompletedAt = now
		}
	}
	return nil
}

// Enqueue appends a task, assigning ID and CreatedAt when empty.
func (q *PendingQueue) Enqueue(_ context.Context, task *domain.PendingIndexingTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = q.now()
	}
	q.tasks = append(q.tasks, *task)
	return nil
}
