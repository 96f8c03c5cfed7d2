package driving

import (
	"context"

	"github.com/emonupg/essync/internal/core/domain"
)

// QueueService applies and manages the pending-work queue.
type QueueService interface {
	// DrainPending applies every pending task once.
	DrainPending(ctx context.Context) (*domain.DrainResult, error)

	// Enqueue appends a task to the queue.
	Enqueue(ctx context.Context, task *domain.PendingIndexingTask) error

	// ListPending returns pending tasks in creation order.
	ListPending(ctx context.Context) ([]domain.PendingIndexingTask, error)
}
