package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/core/ports/driving"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService forwards queries to the search engine through aliases.
type SearchService struct {
	engine        driven.SearchEngine
	aliases       *AliasResolver
	fallbackAlias string
}

// NewSearchService creates a new search service. fallbackAlias is used when
// no collection is given and the global alias does not exist yet.
func NewSearchService(engine driven.SearchEngine, aliases *AliasResolver, fallbackAlias string) *SearchService {
	return &SearchService{
		engine:        engine,
		aliases:       aliases,
		fallbackAlias: fallbackAlias,
	}
}

// Search runs a query string search.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	logger.Section("Search Execution")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchHit{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	target, err := s.aliases.SearchTarget(ctx, opts.Collection, s.fallbackAlias)
	if err != nil {
		return nil, fmt.Errorf("resolve search target: %w", err)
	}
	logger.Debug("Query %q against %s (limit %d)", query, target, limit)

	hits, err := s.engine.Search(ctx, target, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", target, err)
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}
	logger.Debug("Search returned %d hits", len(hits))
	return hits, nil
}
