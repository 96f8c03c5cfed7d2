// Package cli implements the essync command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/emonupg/essync/internal/core/ports/driving"
	"github.com/emonupg/essync/internal/logger"
)

var version = "dev"

// Watcher reloads configuration and calls onChange after every change.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Services holds everything the commands call into.
// Services left nil make their commands fail with a "not configured" error.
type Services struct {
	Settings    driving.SettingsService
	Status      driving.StatusService
	Search      driving.SearchService
	Collections driving.CollectionService
	Queue       driving.QueueService
	Rebuild     driving.RebuildOrchestrator
	Validator   driving.RebuildValidator

	// NewScheduler builds a scheduler from the current settings.
	NewScheduler func() driving.Scheduler

	// ConfigWatcher triggers scheduler reloads in serve. Optional.
	ConfigWatcher Watcher
}

var (
	settingsService     driving.SettingsService
	statusService       driving.StatusService
	searchService       driving.SearchService
	collectionService   driving.CollectionService
	queueService        driving.QueueService
	rebuildOrchestrator driving.RebuildOrchestrator
	rebuildValidator    driving.RebuildValidator
	newScheduler        func() driving.Scheduler
	configWatcher       Watcher
)

var (
	verbose  bool
	jsonLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "essync",
	Short: "Keep Elasticsearch indices in sync with a content repository",
	Long: `essync rebuilds search indices with zero downtime and applies queued
content changes incrementally.

Each collection is written to a versioned index behind an alias. A rebuild
fills a fresh index, validates it against the content repository and only
then moves the alias.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetJSON(jsonLogs)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "write logs as JSON")
}

// SetServices installs the services used by commands.
func SetServices(s Services) {
	settingsService = s.Settings
	statusService = s.Status
	searchService = s.Search
	collectionService = s.Collections
	queueService = s.Queue
	rebuildOrchestrator = s.Rebuild
	rebuildValidator = s.Validator
	newScheduler = s.NewScheduler
	configWatcher = s.ConfigWatcher
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to commands.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
