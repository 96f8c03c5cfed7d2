// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements the persistence ports through a single database connection:
//
//   - IndexRegistry: collection to physical index mapping
//   - FieldConfigStore: per-collection field rules, cached with an LRU
//   - PendingQueue: the pending indexing work log
//   - LogSink: the indexing run log
//   - SchedulerStore: scheduled task state and history
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each applied version is recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.essync/data/essync.db
//
// Timestamps are stored as fixed-width UTC RFC3339 strings so that ORDER BY
// on them is chronological.
package sqlite
