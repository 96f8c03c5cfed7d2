package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emonupg/essync/internal/core/domain"
)

var statusLogs int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connection, index and run log status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLogs, "logs", "n", 10, "number of run log entries to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statusService == nil {
		return errors.New("status service not configured")
	}
	ctx := commandContext(cmd)

	info, err := statusService.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	printInfo(cmd, info)

	if statusLogs <= 0 {
		return nil
	}
	entries, err := statusService.RecentLogs(ctx, statusLogs)
	if err != nil {
		return fmt.Errorf("failed to read run log: %w", err)
	}
	cmd.Println()
	cmd.Println(heading("Recent runs"))
	if len(entries) == 0 {
		cmd.Println("  " + mutedStyle.Render("no runs recorded"))
	}
	for _, e := range entries {
		cmd.Printf("  %s %s %s\n",
			mutedStyle.Render(e.CreatedAt.Local().Format(time.DateTime)),
			mark(e.Status == domain.LogPass),
			e.Message)
	}
	return nil
}

func printInfo(cmd *cobra.Command, info *domain.Info) {
	cmd.Println(heading("Elasticsearch"))
	cmd.Println(field("Host:", info.Host))
	cmd.Println(field("Username:", info.Username))
	cert := ""
	if info.Certificate != "" {
		cert = "configured"
	}
	cmd.Println(field("Certificate:", cert))
	cmd.Println(field("Initialized:", yesNo(info.Initialized)))
	cmd.Println(field("Connected:", yesNo(info.Connected)))
	cmd.Println(field("Index alias:", info.IndexAlias))
	cmd.Println(field("Global alias:", info.GlobalAlias))
	cmd.Println(field("Schedule:", info.CronSchedule))

	cmd.Println()
	cmd.Println(heading("Indices"))
	if len(info.Collections) == 0 {
		cmd.Println("  " + mutedStyle.Render("no collection has been rebuilt yet"))
		return
	}
	for _, r := range info.Collections {
		cmd.Printf("  %s\n", r.CollectionName)
		cmd.Println(field("  Index:", fmt.Sprintf("%s (v%d)", r.CurrentIndexName, r.Version)))
		cmd.Println(field("  Alias:", r.AliasName))
		cmd.Println(field("  Rebuilt:", r.LastRebuiltAt.Local().Format(time.DateTime)))
	}
}
