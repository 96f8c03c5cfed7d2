package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/core/ports/driving"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure RebuildOrchestrator implements the interface.
var _ driving.RebuildOrchestrator = (*RebuildOrchestrator)(nil)

// RebuildOrchestrator rebuilds collection indices and rotates their aliases.
type RebuildOrchestrator struct {
	content   driven.ContentRepository
	engine    driven.SearchEngine
	configs   driven.FieldConfigStore
	registry  driven.IndexRegistry
	logs      driven.LogSink
	namer     *IndexNamer
	aliases   *AliasResolver
	validator driving.RebuildValidator
	extractor *Extractor

	// Optional
	locker  driven.RebuildLocker
	limiter *rate.Limiter
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewRebuildOrchestrator creates a new rebuild orchestrator.
func NewRebuildOrchestrator(
	content driven.ContentRepository,
	engine driven.SearchEngine,
	configs driven.FieldConfigStore,
	registry driven.IndexRegistry,
	logs driven.LogSink,
	aliases *AliasResolver,
	validator driving.RebuildValidator,
	extractor *Extractor,
) *RebuildOrchestrator {
	return &RebuildOrchestrator{
		content:   content,
		engine:    engine,
		configs:   configs,
		registry:  registry,
		logs:      logs,
		namer:     NewIndexNamer(registry),
		aliases:   aliases,
		validator: validator,
		extractor: extractor,
		now:       time.Now,
		inFlight:  make(map[string]bool),
	}
}

// SetLocker adds a cross-process lock around collection rebuilds.
func (o *RebuildOrchestrator) SetLocker(locker driven.RebuildLocker) {
	o.locker = locker
}

// SetRateLimit caps document writes per second. Zero or less removes the cap.
func (o *RebuildOrchestrator) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		o.limiter = nil
		return
	}
	burst := max(1, int(perSecond))
	o.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// SetClock replaces the time source used for registry timestamps.
func (o *RebuildOrchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// RebuildCollection builds the next index version for collection, validates it
// and swaps the collection alias onto it. The registry is only written after a
// successful swap; a failed validation leaves the new index behind unaliased.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *RebuildOrchestrator) RebuildCollection(ctx context.Context, collection string) (*domain.RebuildResult, error) {
	if collection == "" {
		return nil, domain.ConfigurationError("rebuild", "", domain.ErrCollectionRequired)
	}

	unlock, err := o.acquire(collection)
	if err != nil {
		return nil, err
	}
	defer unlock()

	logger.Section("Rebuild " + collection)

	// 1. Validate configured
	schema, rules, err := o.loadCollection(ctx, "rebuild", collection)
	if err != nil {
		o.logs.RecordFail(ctx, fmt.Sprintf("Rebuild of collection %s failed: %v", collection, err))
		return nil, err
	}

	result := &domain.RebuildResult{CollectionName: collection}
	fail := func(msg string, err error) (*domain.RebuildResult, error) {
		result.Error = msg
		if err != nil {
			result.Error = fmt.Sprintf("%s: %v", msg, err)
		}
		logger.WithFields(logger.Fields{"collection": collection}).Error(result.Error)
		o.logs.RecordFail(ctx, fmt.Sprintf("Rebuild of collection %s failed: %s", collection, result.Error))
		return result, nil
	}

	// 2. Create new index
	oldIndex, err := o.namer.CurrentIndexName(ctx, collection)
	if err != nil {
		return fail("resolve current index", err)
	}
	newIndex, err := o.namer.IncrementedIndexName(ctx, collection)
	if err != nil {
		return fail("resolve new index", err)
	}
	result.OldIndexName = oldIndex
	result.NewIndexName = newIndex
	logger.Debug("Current index %s, new index %s", oldIndex, newIndex)

	if err := o.engine.CreateIndex(ctx, newIndex); err != nil {
		return fail("create index "+newIndex, err)
	}

	// 3. Bulk index into the unaliased index
	n, err := o.indexRecords(ctx, collection, schema, rules, newIndex)
	if err != nil {
		return fail("index records", err)
	}
	logger.Info("Indexed %d documents of %s into %s", n, collection, newIndex)
	if err := o.engine.Refresh(ctx, newIndex); err != nil {
		return fail("refresh index "+newIndex, err)
	}

	// 4. Validate before any reader can see the new index
	validation, err := o.validator.ValidateRebuild(ctx, collection, newIndex)
	if err != nil {
		return fail("validate rebuild", err)
	}
	result.Validation = validation
	if !validation.Success {
		logger.Warn("Validation of %s failed; alias left on %s", newIndex, oldIndex)
		o.logs.RecordFail(ctx, fmt.Sprintf("Rebuild validation failed for %s", collection))
		result.Error = domain.ErrValidationFailed.Error()
		return result, nil
	}

	// 5. Swap alias atomically
	alias := o.aliases.CollectionAlias(collection)
	actions, err := o.aliases.SwapActions(ctx, alias, oldIndex, newIndex)
	if err != nil {
		return fail("prepare alias swap", err)
	}
	if err := o.engine.UpdateAliases(ctx, actions); err != nil {
		return fail("swap alias "+alias, err)
	}

	// 6. Persist registry
	if err := o.registry.Save(ctx, domain.NewCollectionIndexRecord(collection, newIndex, o.now())); err != nil {
		return fail("save registry record", err)
	}

	// 7. Best-effort cleanup
	if oldIndex != newIndex {
		if err := o.engine.DeleteIndex(ctx, oldIndex); err != nil {
			o.warn(result, domain.NewWarning("delete old index "+oldIndex, err))
		}
	}
	o.warn(result, o.aliases.UpdateGlobalAlias(ctx))

	result.Success = true
	logger.WithFields(logger.Fields{"collection": collection, "index": newIndex}).Info("Rebuild complete")
	o.logs.RecordPass(ctx, fmt.Sprintf("Rebuild of collection %s completed successfully.", collection))
	return result, nil
}

// RebuildAll rebuilds every configured collection in name order.
// A failing collection is recorded and never stops the others.
func (o *RebuildOrchestrator) RebuildAll(ctx context.Context) (*domain.FullRebuildResult, error) {
	collections, err := o.configs.ListConfiguredCollections(ctx)
	if err != nil {
		o.logs.RecordFail(ctx, err.Error())
		return nil, fmt.Errorf("list configured collections: %w", err)
	}

	logger.Info("Rebuilding %d collections", len(collections))
	full := &domain.FullRebuildResult{Results: make([]domain.RebuildResult, 0, len(collections))}
	for _, c := range collections {
		res, err := o.RebuildCollection(ctx, c)
		if err != nil {
			logger.Warn("Failed to rebuild %s: %v", c, err)
			res = &domain.RebuildResult{CollectionName: c, Error: err.Error()}
		}
		full.Results = append(full.Results, *res)
	}

	succeeded, failed := full.Counts()
	full.Success = failed == 0
	if full.Success {
		o.logs.RecordPass(ctx, fmt.Sprintf("Successfully rebuilt %d collection indices.", succeeded))
	} else {
		o.logs.RecordFail(ctx, fmt.Sprintf("Rebuilt %d collections, %d failed.", succeeded, failed))
	}
	return full, nil
}

// IndexCollection writes every live record of collection into index, or into
// the collection's current index when index is empty. Nothing is validated or
// swapped.
func (o *RebuildOrchestrator) IndexCollection(ctx context.Context, collection, index string) (int, error) {
	if collection == "" {
		return 0, domain.ConfigurationError("index collection", "", domain.ErrCollectionRequired)
	}
	schema, rules, err := o.loadCollection(ctx, "index collection", collection)
	if err != nil {
		return 0, err
	}
	if index == "" {
		if index, err = o.namer.CurrentIndexName(ctx, collection); err != nil {
			return 0, err
		}
	}
	n, err := o.indexRecords(ctx, collection, schema, rules, index)
	if err != nil {
		return n, err
	}
	if err := o.engine.Refresh(ctx, index); err != nil {
		return n, fmt.Errorf("refresh %s: %w", index, err)
	}
	return n, nil
}

// loadCollection fetches the schema and parsed rules of a configured collection.
func (o *RebuildOrchestrator) loadCollection(
	ctx context.Context,
	op, collection string,
) (*domain.CollectionSchema, []domain.FieldRule, error) {
	schema, err := o.content.Schema(ctx, collection)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCollection) || errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ConfigurationError(op, collection, domain.ErrUnknownCollection)
		}
		return nil, nil, fmt.Errorf("get schema: %w", err)
	}
	cfg, err := o.configs.GetCollectionConfig(ctx, collection)
	if err != nil {
		return nil, nil, fmt.Errorf("get collection config: %w", err)
	}
	if cfg.IsEmpty() {
		return nil, nil, domain.ConfigurationError(op, collection, domain.ErrNotConfigured)
	}
	return schema, domain.ParseRules(cfg), nil
}

// indexRecords writes live records one at a time, newest first.
func (o *RebuildOrchestrator) indexRecords(
	ctx context.Context,
	collection string,
	schema *domain.CollectionSchema,
	rules []domain.FieldRule,
	index string,
) (int, error) {
	records, err := o.content.FindMany(ctx, collection, domain.LiveRecordOptions(schema, domain.PopulateFor(schema)))
	if err != nil {
		return 0, fmt.Errorf("fetch records: %w", err)
	}
	for i, rec := range records {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return i, err
			}
		}
		id := domain.IndexItemID(collection, rec.DocumentID())
		if err := o.engine.IndexDocument(ctx, index, id, o.extractor.Extract(rec, rules)); err != nil {
			return i, fmt.Errorf("index document %s: %w", id, err)
		}
	}
	return len(records), nil
}

// acquire takes the in-process and optional cross-process lock for collection.
func (o *RebuildOrchestrator) acquire(collection string) (func(), error) {
	o.mu.Lock()
	if o.inFlight[collection] {
		o.mu.Unlock()
		return nil, fmt.Errorf("rebuild %s: %w", collection, domain.ErrRebuildInProgress)
	}
	o.inFlight[collection] = true
	o.mu.Unlock()

	release := func() {
		o.mu.Lock()
		delete(o.inFlight, collection)
		o.mu.Unlock()
	}
	if o.locker == nil {
		return release, nil
	}

	unlock, err := o.locker.TryLock(collection)
	if err != nil {
		release()
		return nil, fmt.Errorf("rebuild %s: %w", collection, err)
	}
	return func() {
		unlock()
		release()
	}, nil
}

func (o *RebuildOrchestrator) warn(result *domain.RebuildResult, w *domain.Warning) {
	if w == nil {
		return
	}
	logger.Warn("%s", w.String())
	result.Warnings = append(result.Warnings, w.String())
}
