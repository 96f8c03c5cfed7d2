package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emonupg/essync/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background scheduler",
	Long: `Runs scheduled tasks until interrupted: the pending queue is drained on
its interval and, when configured, every collection is rebuilt periodically.

Edits to the configuration file restart the scheduler with the new intervals.
Connection changes take effect on the next start.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if newScheduler == nil {
		return errors.New("scheduler not configured")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reload := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)

	if configWatcher != nil {
		g.Go(func() error {
			return configWatcher.Watch(gctx, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		})
	}

	g.Go(func() error {
		return superviseScheduler(gctx, reload)
	})

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	cmd.Println("Scheduler stopped.")
	return err
}

// superviseScheduler runs a scheduler and replaces it on every reload signal.
func superviseScheduler(ctx context.Context, reload <-chan struct{}) error {
	for {
		scheduler := newScheduler()
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- scheduler.Start(runCtx)
		}()

		select {
		case <-ctx.Done():
			cancel()
			_ = scheduler.Stop()
			<-done
			return ctx.Err()
		case <-reload:
			logger.Info("configuration changed, restarting scheduler")
			cancel()
			_ = scheduler.Stop()
			<-done
		case err := <-done:
			cancel()
			return err
		}
	}
}
