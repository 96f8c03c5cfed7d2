package domain

import "time"

// LogStatus is the outcome recorded in the run log.
type LogStatus string

// Run log statuses.
const (
	LogPass LogStatus = "pass"
	LogFail LogStatus = "fail"
)

// LogEntry is one run log record.
type LogEntry struct {
	ID        int64
	Status    LogStatus
	Message   string
	CreatedAt time.Time
}
