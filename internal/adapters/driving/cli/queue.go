package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emonupg/essync/internal/core/domain"
)

var (
	queueItem     string
	queueRemove   bool
	queueFullSite bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Apply pending indexing tasks",
	Long: `Drains the pending queue once. Item tasks are written to or removed from
the collection's live index; whole-collection tasks re-index the collection;
a full-site task triggers a rebuild of every configured collection.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the pending indexing queue",
	RunE:  runQueueList,
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending tasks",
	Args:  cobra.NoArgs,
	RunE:  runQueueList,
}

var queueAddCmd = &cobra.Command{
	Use:   "add [collection]",
	Short: "Add a task to the queue",
	Long: `Adds a pending indexing task.

  essync queue add api::article.article --item abc123
  essync queue add api::article.article --item abc123 --remove
  essync queue add api::article.article
  essync queue add --full-site`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQueueAdd,
}

func init() {
	queueAddCmd.Flags().StringVar(&queueItem, "item", "", "document id of a single record")
	queueAddCmd.Flags().BoolVar(&queueRemove, "remove", false, "remove the record from the index")
	queueAddCmd.Flags().BoolVar(&queueFullSite, "full-site", false, "rebuild every configured collection")

	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueAddCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if queueService == nil {
		return errors.New("queue service not configured")
	}

	result, err := queueService.DrainPending(commandContext(cmd))
	if result != nil {
		cmd.Printf("Fetched %d pending tasks, completed %d.\n", result.Fetched, result.Completed)
		if result.FullSite && result.Rebuild != nil {
			succeeded, failed := result.Rebuild.Counts()
			cmd.Printf("Full-site rebuild: %d succeeded, %d failed.\n", succeeded, failed)
		}
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	return nil
}

func runQueueList(cmd *cobra.Command, _ []string) error {
	if queueService == nil {
		return errors.New("queue service not configured")
	}

	tasks, err := queueService.ListPending(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		cmd.Println("No pending tasks.")
		return nil
	}

	cmd.Println(heading("Pending tasks"))
	for i := range tasks {
		cmd.Printf("  %s  %s  %s\n",
			mutedStyle.Render(tasks[i].CreatedAt.Format(time.RFC3339)),
			tasks[i].ID,
			describeTask(&tasks[i]))
	}
	return nil
}

func runQueueAdd(cmd *cobra.Command, args []string) error {
	if queueService == nil {
		return errors.New("queue service not configured")
	}

	task := &domain.PendingIndexingTask{
		ItemDocumentID:   queueItem,
		IndexingType:     domain.IndexingUpsert,
		FullSiteIndexing: queueFullSite,
	}
	if len(args) > 0 {
		task.CollectionName = args[0]
	}
	if queueRemove {
		task.IndexingType = domain.IndexingRemove
	}

	if err := queueService.Enqueue(commandContext(cmd), task); err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}

	cmd.Printf("Queued task %s: %s\n", task.ID, describeTask(task))
	return nil
}

func describeTask(t *domain.PendingIndexingTask) string {
	switch {
	case t.FullSiteIndexing:
		return "full-site rebuild"
	case t.IsItemTask():
		return fmt.Sprintf("%s %s/%s", t.IndexingType, t.CollectionName, t.ItemDocumentID)
	default:
		return "index collection " + t.CollectionName
	}
}
