package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/core/ports/driving"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure QueueConsumer implements the interface.
var _ driving.QueueService = (*QueueConsumer)(nil)

// QueueConsumer applies pending indexing tasks to the search engine.
type QueueConsumer struct {
	queue     driven.PendingQueue
	configs   driven.FieldConfigStore
	content   driven.ContentRepository
	engine    driven.SearchEngine
	logs      driven.LogSink
	namer     *IndexNamer
	aliases   *AliasResolver
	extractor *Extractor
	rebuilder driving.RebuildOrchestrator
	now       func() time.Time
}

// NewQueueConsumer creates a new queue consumer.
func NewQueueConsumer(
	queue driven.PendingQueue,
	configs driven.FieldConfigStore,
	content driven.ContentRepository,
	engine driven.SearchEngine,
	registry driven.IndexRegistry,
	logs driven.LogSink,
	aliases *AliasResolver,
	extractor *Extractor,
	rebuilder driving.RebuildOrchestrator,
) *QueueConsumer {
	return &QueueConsumer{
		queue:     queue,
		configs:   configs,
		content:   content,
		engine:    engine,
		logs:      logs,
		namer:     NewIndexNamer(registry),
		aliases:   aliases,
		extractor: extractor,
		rebuilder: rebuilder,
		now:       time.Now,
	}
}

// DrainPending applies every pending task once, in creation order.
//
// A full-site task in the batch replaces the whole batch with one full rebuild,
// after which every fetched task is marked complete even if some collections
// failed to rebuild. Such tasks are not retried.
//
// Otherwise the first failing task aborts the drain; it and every later task
// stay pending for the next invocation. The returned result is never nil.
func (q *QueueConsumer) DrainPending(ctx context.Context) (*domain.DrainResult, error) {
	result := &domain.DrainResult{}

	tasks, err := q.queue.ListPending(ctx)
	if err != nil {
		return q.abort(ctx, result, fmt.Errorf("list pending tasks: %w", err))
	}
	result.Fetched = len(tasks)
	if len(tasks) == 0 {
		return result, nil
	}
	logger.Debug("Draining %d pending tasks", len(tasks))

	if hasFullSiteTask(tasks) {
		return q.drainFullSite(ctx, tasks, result)
	}

	rules := make(map[string][]domain.FieldRule)
	wholeCollection := false
	for i := range tasks {
		whole, err := q.apply(ctx, &tasks[i], rules)
		if err != nil {
			return q.abort(ctx, result, fmt.Errorf("task %s: %w", tasks[i].ID, err))
		}
		wholeCollection = wholeCollection || whole
		result.Completed++
	}

	// A lone whole-collection task already logged its own entry.
	if !wholeCollection || len(tasks) > 1 {
		q.logs.RecordPass(ctx, fmt.Sprintf("Indexing of %d records complete.", len(tasks)))
	}
	return result, nil
}

// Enqueue validates and appends a task.
func (q *QueueConsumer) Enqueue(ctx context.Context, task *domain.PendingIndexingTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}
	if task.IndexingType == "" {
		task.IndexingType = domain.IndexingUpsert
	}
	if !task.IndexingType.IsValid() {
		return fmt.Errorf("%w: indexing type %q", domain.ErrInvalidInput, task.IndexingType)
	}
	if !task.FullSiteIndexing && task.CollectionName == "" {
		return domain.ConfigurationError("enqueue", "", domain.ErrCollectionRequired)
	}
	if task.IsRemoval() && !task.IsItemTask() {
		return fmt.Errorf("%w: removal requires an item document id", domain.ErrInvalidInput)
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = q.now()
	}
	if err := q.queue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// ListPending returns pending tasks in creation order.
func (q *QueueConsumer) ListPending(ctx context.Context) ([]domain.PendingIndexingTask, error) {
	return q.queue.ListPending(ctx)
}

func (q *QueueConsumer) drainFullSite(
	ctx context.Context,
	tasks []domain.PendingIndexingTask,
	result *domain.DrainResult,
) (*domain.DrainResult, error) {
	result.FullSite = true
	logger.Info("Full-site indexing requested; rebuilding all collections")

	full, err := q.rebuilder.RebuildAll(ctx)
	result.Rebuild = full
	if err != nil {
		logger.Warn("Full rebuild failed: %v", err)
		result.Error = err.Error()
	}

	for _, task := range tasks {
		if err := q.queue.MarkComplete(ctx, task.ID); err != nil {
			return q.abort(ctx, result, fmt.Errorf("mark task %s complete: %w", task.ID, err))
		}
		result.Completed++
	}
	return result, nil
}

// apply runs a single task and marks it complete.
// It reports whether the task indexed an entire collection.
func (q *QueueConsumer) apply(ctx context.Context, task *domain.PendingIndexingTask, cache map[string][]domain.FieldRule) (bool, error) {
	collection := task.CollectionName
	configured, err := q.configs.IsConfigured(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("check configuration: %w", err)
	}
	if !configured {
		logger.Debug("Skipping task %s: %s is not configured for indexing", task.ID, collection)
		return false, q.queue.MarkComplete(ctx, task.ID)
	}

	switch {
	case !task.IsItemTask():
		n, err := q.rebuilder.IndexCollection(ctx, collection, "")
		if err != nil {
			return false, fmt.Errorf("index collection %s: %w", collection, err)
		}
		if err := q.queue.MarkComplete(ctx, task.ID); err != nil {
			return false, err
		}
		logger.Info("Indexed %d records of %s", n, collection)
		q.logs.RecordPass(ctx, fmt.Sprintf("Indexing of collection %s complete.", collection))
		return true, nil

	case task.IsRemoval():
		target, err := q.writeTarget(ctx, collection)
		if err != nil {
			return false, err
		}
		id := domain.IndexItemID(collection, task.ItemDocumentID)
		if err := q.engine.DeleteDocument(ctx, target, id); err != nil {
			return false, fmt.Errorf("remove %s from %s: %w", id, target, err)
		}
		return false, q.queue.MarkCompleteByItemDocumentID(ctx, task.ItemDocumentID)

	default:
		if err := q.upsert(ctx, task, cache); err != nil {
			return false, err
		}
		return false, q.queue.MarkCompleteByItemDocumentID(ctx, task.ItemDocumentID)
	}
}

func (q *QueueConsumer) upsert(ctx context.Context, task *domain.PendingIndexingTask, cache map[string][]domain.FieldRule) error {
	collection := task.CollectionName
	schema, err := q.content.Schema(ctx, collection)
	if err != nil {
		return fmt.Errorf("get schema: %w", err)
	}
	record, err := q.content.FindOne(ctx, collection, task.ItemDocumentID, domain.PopulateFor(schema))
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Record %s of %s no longer exists; nothing to index", task.ItemDocumentID, collection)
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch record %s: %w", task.ItemDocumentID, err)
	}

	rules, ok := cache[collection]
	if !ok {
		cfg, err := q.configs.GetCollectionConfig(ctx, collection)
		if err != nil {
			return fmt.Errorf("get collection config: %w", err)
		}
		rules = domain.ParseRules(cfg)
		cache[collection] = rules
	}

	target, err := q.writeTarget(ctx, collection)
	if err != nil {
		return err
	}
	id := domain.IndexItemID(collection, record.DocumentID())
	if err := q.engine.IndexDocument(ctx, target, id, q.extractor.Extract(record, rules)); err != nil {
		return fmt.Errorf("index %s into %s: %w", id, target, err)
	}
	return nil
}

// writeTarget is the collection alias once a rebuild has created it,
// else the collection's current index.
func (q *QueueConsumer) writeTarget(ctx context.Context, collection string) (string, error) {
	alias := q.aliases.CollectionAlias(collection)
	exists, err := q.engine.AliasExists(ctx, alias)
	if err != nil {
		return "", fmt.Errorf("check alias %s: %w", alias, err)
	}
	if exists {
		return alias, nil
	}
	return q.namer.CurrentIndexName(ctx, collection)
}

func (q *QueueConsumer) abort(ctx context.Context, result *domain.DrainResult, err error) (*domain.DrainResult, error) {
	result.Error = err.Error()
	logger.Error("Indexing of records failed: %v", err)
	q.logs.RecordFail(ctx, "Indexing of records failed - "+err.Error())
	return result, err
}

func hasFullSiteTask(tasks []domain.PendingIndexingTask) bool {
	for _, t := range tasks {
		if t.FullSiteIndexing {
			return true
		}
	}
	return false
}
