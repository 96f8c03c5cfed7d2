// Package domain defines the core business entities for essync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CollectionIndexRecord: The live physical index behind a collection alias
//   - CollectionConfig: Declarative per-collection field indexing rules
//   - PendingIndexingTask: A queued upsert, removal or rebuild request
//   - ValidationResult: The post-rebuild correctness report
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
