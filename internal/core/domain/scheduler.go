package domain

import "time"

// Built-in scheduler tasks.
const (
	TaskIDPendingIndexing = "pending-indexing"
	TaskIDFullRebuild     = "full-rebuild"
)

// BuiltinTasks maps every built-in task ID to its display name, in run order.
var BuiltinTasks = []struct{ ID, Name string }{
	{TaskIDPendingIndexing, "Pending Indexing"},
	{TaskIDFullRebuild, "Full Rebuild"},
}

// ScheduledTask is the persisted state of a recurring task.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time

	// LastError is empty after a successful run.
	LastError string
}

// IsDue reports whether an enabled task should run at now.
// A task that has never been scheduled is always due.
func (t *ScheduledTask) IsDue(now time.Time) bool {
	if !t.Enabled {
		return false
	}
	return t.NextRun.IsZero() || !t.NextRun.After(now)
}

// Reschedule sets a new interval. NextRun moves only when the interval changes.
func (t *ScheduledTask) Reschedule(cfg TaskConfig, now time.Time) {
	if t.Interval != cfg.Interval || t.NextRun.IsZero() {
		t.Interval = cfg.Interval
		t.NextRun = now.Add(cfg.Interval)
	}
	t.Enabled = cfg.Enabled
}

// Complete records the outcome of a run and schedules the next one.
func (t *ScheduledTask) Complete(result *TaskResult) {
	t.LastRun = result.StartedAt
	t.NextRun = result.EndedAt.Add(t.Interval)
	if result.Success {
		t.LastError = ""
		t.LastSuccess = result.EndedAt
		return
	}
	t.LastError = result.Error
}

// TaskResult is one execution of a scheduled task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed counts drained queue tasks or rebuilt collections.
	ItemsProcessed int
}

// SchedulerConfig enables the scheduler and its tasks.
type SchedulerConfig struct {
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// TaskConfig configures one task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the configuration of taskID, or the zero value.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig drains the pending queue every minute.
// The daily full rebuild is opt-in.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDPendingIndexing: {Enabled: true, Interval: time.Minute},
			TaskIDFullRebuild:     {Enabled: false, Interval: 24 * time.Hour},
		},
	}
}
