package domain

// DefaultSearchLimit caps search results when no limit is given.
const DefaultSearchLimit = 10

// SearchOptions configures a passthrough search.
type SearchOptions struct {
	// Collection narrows the search to one collection's alias.
	Collection string

	// Limit is the maximum number of results.
	Limit int
}

// SearchHit is a single search result from the engine.
type SearchHit struct {
	// Index is the physical index the hit came from.
	Index string

	// ID is the document id.
	ID string

	// Score is the relevance score.
	Score float64

	// Source is the stored document.
	Source Document
}
