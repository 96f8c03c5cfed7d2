package driven

import (
	"context"

	"github.com/emonupg/essync/internal/core/domain"
)

// SearchEngine is the capability set of the search backend.
// Implementations must treat CreateIndex on an existing index, DeleteIndex on an
// absent index and DeleteDocument on an absent document as no-ops.
type SearchEngine interface {
	// Ping checks that the engine is reachable.
	Ping(ctx context.Context) error

	// IndexExists reports whether a physical index exists.
	IndexExists(ctx context.Context, name string) (bool, error)

	// CreateIndex creates a physical index. No-op if it exists.
	CreateIndex(ctx context.Context, name string) error

	// DeleteIndex deletes a physical index. No-op if it is absent.
	DeleteIndex(ctx context.Context, name string) error

	// AliasExists reports whether an alias points at any index.
	AliasExists(ctx context.Context, alias string) (bool, error)

	// UpdateAliases applies all actions in a single atomic request.
	UpdateAliases(ctx context.Context, actions []AliasAction) error

	// IndexDocument adds or replaces a document. index may be an alias.
	IndexDocument(ctx context.Context, index, id string, body domain.Document) error

	// DeleteDocument removes a document. Not-found is not an error.
	DeleteDocument(ctx context.Context, index, id string) error

	// Refresh makes every write to index visible to Count and Search.
	Refresh(ctx context.Context, index string) error

	// Count returns the number of documents in an index.
	Count(ctx context.Context, index string) (int, error)

	// GetDocument fetches a document. Returns domain.ErrNotFound when absent.
	GetDocument(ctx context.Context, index, id string) (domain.Document, error)

	// Search runs a query string search and returns raw hits.
	Search(ctx context.Context, index, query string, limit int) ([]domain.SearchHit, error)
}

// AliasOp is the type of an alias action.
type AliasOp string

// Alias operations.
const (
	AliasAdd    AliasOp = "add"
	AliasRemove AliasOp = "remove"
)

// AliasAction adds or removes an alias on an index.
type AliasAction struct {
	Op    AliasOp
	Index string
	Alias string
}

// AddAlias returns an add action.
func AddAlias(index, alias string) AliasAction {
	return AliasAction{Op: AliasAdd, Index: index, Alias: alias}
}

// RemoveAlias returns a remove action.
func RemoveAlias(index, alias string) AliasAction {
	return AliasAction{Op: AliasRemove, Index: index, Alias: alias}
}
