// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SearchEngine: Index, alias and document CRUD (Elasticsearch)
//   - ContentRepository: Read-only access to the system of record
//   - FieldConfigStore: Per-collection field indexing rules
//   - IndexRegistry: Collection to physical index mapping
//   - PendingQueue: The pending-work log
//   - LogSink: Pass/fail run log
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RebuildLocker: Cross-process rebuild lock. In-process locking always applies.
//   - Transformers: Named value transforms. Without it, transforms are skipped.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
