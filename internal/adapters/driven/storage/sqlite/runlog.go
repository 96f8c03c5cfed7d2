package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/logger"
)

// logSink implements driven.LogSink.
type logSink struct {
	store *Store
	now   func() time.Time
}

var _ driven.LogSink = (*logSink)(nil)

// RecordPass records a successful run.
func (l *logSink) RecordPass(ctx context.Context, message string) {
	l.record(ctx, domain.LogPass, message)
}

// RecordFail records a failed run.
func (l *logSink) RecordFail(ctx context.Context, message string) {
	l.record(ctx, domain.LogFail, message)
}

func (l *logSink) record(ctx context.Context, status domain.LogStatus, message string) {
	_, err := l.store.db.ExecContext(ctx,
		"INSERT INTO indexing_logs (status, message, created_at) VALUES (?, ?, ?)",
		string(status), message, formatTime(l.now()))
	if err != nil {
		logger.Warn("Failed to record run log entry %q: %v", message, err)
	}
}

// Recent returns up to limit entries, newest first. A limit of zero returns all.
func (l *logSink) Recent(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT id, status, message, created_at FROM indexing_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run log: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entry domain.LogEntry
		var createdAt sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Status, &entry.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning run log entry: %w", err)
		}
		entry.CreatedAt = parseNullableTime(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run log: %w", err)
	}
	return entries, nil
}
