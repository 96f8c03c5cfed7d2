// Command essync keeps Elasticsearch indices in sync with a content repository.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/emonupg/essync/internal/adapters/driven/config/file"
	"github.com/emonupg/essync/internal/adapters/driven/content/fixtures"
	"github.com/emonupg/essync/internal/adapters/driven/content/strapi"
	"github.com/emonupg/essync/internal/adapters/driven/elastic"
	"github.com/emonupg/essync/internal/adapters/driven/lock"
	"github.com/emonupg/essync/internal/adapters/driven/storage/sqlite"
	"github.com/emonupg/essync/internal/adapters/driving/cli"
	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/core/ports/driving"
	"github.com/emonupg/essync/internal/core/services"
	"github.com/emonupg/essync/internal/logger"
	"github.com/emonupg/essync/internal/transformers"
)

// Set by the build via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)

	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore)

	store, err := sqlite.NewStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open store: %v\n", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store: %v", err)
		}
	}()

	svcs, err := wire(settingsService, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	svcs.ConfigWatcher = configStore
	cli.SetServices(svcs)

	if err := cli.ExecuteContext(context.Background()); err != nil {
		return 1
	}
	return 0
}

// wire builds the services the current settings allow. Services that need an
// unconfigured engine or content repository are left nil so their commands
// report it, while settings and status keep working.
func wire(settingsService *services.SettingsService, store *sqlite.Store) (cli.Services, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return cli.Services{}, fmt.Errorf("load settings: %w", err)
	}

	registry := store.IndexRegistry()
	configs := store.FieldConfigStore()
	logs := store.LogSink()

	engine, err := newEngine(settings.Connection)
	if err != nil && !errors.Is(err, domain.ErrEngineNotConfigured) {
		logger.Warn("search engine unavailable: %v", err)
	}
	var searchEngine driven.SearchEngine
	if engine != nil {
		searchEngine = engine
	}

	svcs := cli.Services{
		Settings: settingsService,
		Status:   services.NewStatusService(settingsService, searchEngine, registry, logs),
	}

	content, err := newContent(settings.Content)
	if err != nil {
		logger.Debug("content repository unavailable: %v", err)
	}
	if content != nil {
		svcs.Collections = services.NewCollectionService(content, configs, registry)
	}

	if searchEngine == nil || content == nil {
		svcs.NewScheduler = func() driving.Scheduler {
			return services.NewScheduler(settingsService.GetSchedulerConfig(), store.SchedulerStore(), nil, nil)
		}
		return svcs, nil
	}

	aliases := services.NewAliasResolver(searchEngine, registry, settings.GlobalAlias)
	extractor := services.NewExtractor(transformers.ContentTransforms(), transformers.Functions())
	validator := services.NewRebuildValidator(content, searchEngine)

	rebuilder := services.NewRebuildOrchestrator(content, searchEngine, configs, registry, logs, aliases, validator, extractor)
	lockDir, err := lock.DefaultDir()
	if err != nil {
		return cli.Services{}, fmt.Errorf("lock directory: %w", err)
	}
	rebuilder.SetLocker(lock.NewFileLocker(lockDir))
	rebuilder.SetRateLimit(settings.Indexing.RateLimit)

	queue := services.NewQueueConsumer(store.PendingQueue(), configs, content, searchEngine,
		registry, logs, aliases, extractor, rebuilder)

	svcs.Search = services.NewSearchService(searchEngine, aliases, settings.IndexAlias)
	svcs.Queue = queue
	svcs.Rebuild = rebuilder
	svcs.Validator = validator
	svcs.NewScheduler = func() driving.Scheduler {
		return services.NewScheduler(settingsService.GetSchedulerConfig(), store.SchedulerStore(), queue, rebuilder)
	}

	return svcs, nil
}

func newEngine(conn domain.ConnectionSettings) (*elastic.Engine, error) {
	if !conn.IsConfigured() {
		return nil, domain.ErrEngineNotConfigured
	}
	engine, err := elastic.New(elastic.Config{
		Host:        conn.Host,
		Username:    conn.Username,
		Password:    conn.Password,
		Certificate: conn.Certificate,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: %w", err)
	}
	return engine, nil
}

func newContent(cfg domain.ContentSettings) (driven.ContentRepository, error) {
	switch cfg.Driver {
	case domain.ContentDriverStrapi:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("content.base_url not set: %w", domain.ErrInvalidInput)
		}
		repo, err := strapi.New(strapi.Config{BaseURL: cfg.BaseURL, Token: cfg.Token})
		if err != nil {
			return nil, err
		}
		return repo, nil
	case domain.ContentDriverFixtures:
		if cfg.FixturesDir == "" {
			return nil, fmt.Errorf("content.fixtures_dir not set: %w", domain.ErrInvalidInput)
		}
		repo, err := fixtures.New(cfg.FixturesDir)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown content driver %q: %w", cfg.Driver, domain.ErrInvalidInput)
	}
}
