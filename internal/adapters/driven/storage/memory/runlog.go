package memory

import (
	"context"
	"sync"
	"time"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
)

// Ensure LogSink implements the interface.
var _ driven.LogSink = (*LogSink)(nil)

// LogSink is an in-memory run log.
type LogSink struct {
	mu      sync.Mutex
	entries []domain.LogEntry
	nextID  int64
}

// NewLogSink creates a new in-memory run log.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// RecordPass records a successful run.
func (l *LogSink) RecordPass(_ context.Context, message string) {
	l.record(domain.LogPass, message)
}

// RecordFail records a failed run.
func (l *LogSink) RecordFail(_ context.Context, message string) {
	l.record(domain.LogFail, message)
}

func (l *LogSink) record(status domain.LogStatus, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.entries = append(l.entries, domain.LogEntry{
		ID:        l.nextID,
		Status:    status,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// Recent returns up to limit entries, newest first. A limit of zero returns all.
func (l *LogSink) Recent(_ context.Context, limit int) ([]domain.LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.LogEntry, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}
