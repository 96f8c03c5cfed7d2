package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/core/ports/driving"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is how many results are kept per task.
const historyRetention = 100

// Scheduler manages background task execution.
// It drains the pending queue and optionally runs periodic full rebuilds.
type Scheduler struct {
	config    domain.SchedulerConfig
	store     driven.SchedulerStore
	queue     driving.QueueService
	rebuilder driving.RebuildOrchestrator
	tick      time.Duration

	mu      sync.Mutex
	running bool
	active  map[string]bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
// queue and rebuilder may be nil, which turns their tasks into no-ops.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	queue driving.QueueService,
	rebuilder driving.RebuildOrchestrator,
) *Scheduler {
	return &Scheduler{
		config:    config,
		store:     store,
		queue:     queue,
		rebuilder: rebuilder,
		tick:      time.Minute,
		active:    make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		logger.Info("Scheduler disabled")
	} else if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks creates or reschedules every built-in task with an interval.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	now := time.Now()
	for _, t := range domain.BuiltinTasks {
		cfg := s.config.GetTaskConfig(t.ID)
		if cfg.Interval <= 0 {
			continue
		}

		task, err := s.store.GetTask(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("load task %s: %w", t.ID, err)
		}
		if task == nil {
			task = &domain.ScheduledTask{ID: t.ID, Name: t.Name}
		}
		task.Reschedule(cfg, now)

		if err := s.store.SaveTask(ctx, task); err != nil {
			return fmt.Errorf("save task %s: %w", t.ID, err)
		}
	}
	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	if s.config.Enabled {
		s.checkAndRunDueTasks(ctx)
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			if s.config.Enabled {
				s.checkAndRunDueTasks(ctx)
			}
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		if tasks[i].IsDue(now) {
			s.runTask(ctx, &tasks[i])
		}
	}
}

// runTask executes a single task in the background.
// A task still running from an earlier tick is not started again.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.active[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipping", task.ID)
		return
	}
	s.active[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDPendingIndexing:
			result.ItemsProcessed, err = s.runPendingIndexing(ctx)
		case domain.TaskIDFullRebuild:
			result.ItemsProcessed, err = s.runFullRebuild(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		result.Success = err == nil
		if err != nil {
			result.Error = err.Error()
		}
		task.Complete(result)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(ctx, historyRetention); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runPendingIndexing drains the pending queue.
func (s *Scheduler) runPendingIndexing(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, nil
	}
	result, err := s.queue.DrainPending(ctx)
	if result == nil {
		return 0, err
	}
	return result.Completed, err
}

// runFullRebuild rebuilds every configured collection.
func (s *Scheduler) runFullRebuild(ctx context.Context) (int, error) {
	if s.rebuilder == nil {
		return 0, nil
	}
	full, err := s.rebuilder.RebuildAll(ctx)
	if err != nil {
		return 0, err
	}
	succeeded, failed := full.Counts()
	if failed > 0 {
		return succeeded, fmt.Errorf("%d of %d collections failed to rebuild", failed, len(full.Results))
	}
	return succeeded, nil
}
