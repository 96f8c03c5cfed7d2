package driving

import (
	"context"

	"github.com/emonupg/essync/internal/core/domain"
)

// SearchService provides passthrough search to external actors.
type SearchService interface {
	// Search runs a query against a collection alias, the global alias or
	// the fallback alias.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error)
}

// StatusService reports deployment state.
type StatusService interface {
	// Info summarises configuration, connectivity and the index registry.
	Info(ctx context.Context) (*domain.Info, error)

	// RecentLogs returns the newest run log entries first.
	RecentLogs(ctx context.Context, limit int) ([]domain.LogEntry, error)
}
