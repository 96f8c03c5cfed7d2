package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emonupg/essync/internal/core/domain"
)

var collectionsCmd = &cobra.Command{
	Use:     "collections",
	Aliases: []string{"collection"},
	Short:   "Inspect and configure collections",
	RunE:    runCollectionsList,
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections and their index state",
	Args:  cobra.NoArgs,
	RunE:  runCollectionsList,
}

var collectionsShowConfigCmd = &cobra.Command{
	Use:   "show-config <collection>",
	Short: "Print the field configuration of a collection as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsShowConfig,
}

var collectionsSetConfigCmd = &cobra.Command{
	Use:   "set-config <collection> [file]",
	Short: "Replace the field configuration of a collection",
	Long: `Reads a JSON field configuration from file, or from stdin when file is
omitted or "-". Keys are attribute names; attribute order is preserved.

  {
    "title": {"index": true, "searchFieldName": "title"},
    "body":  {"index": true, "transform": "markdown"}
  }

An empty object removes the configuration.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCollectionsSetConfig,
}

func init() {
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsShowConfigCmd)
	collectionsCmd.AddCommand(collectionsSetConfigCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func runCollectionsList(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	collections, err := collectionService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(collections) == 0 {
		cmd.Println("No collections found.")
		return nil
	}

	cmd.Println(heading("Collections"))
	for i := range collections {
		c := &collections[i]
		cmd.Printf("  %s\n", c.Name)
		cmd.Println(field("  Configured:", yesNo(c.Configured)))
		if c.LiveRecords != nil {
			cmd.Println(field("  Records:", strconv.Itoa(*c.LiveRecords)))
		}
		if c.Record != nil {
			cmd.Println(field("  Index:", c.Record.CurrentIndexName))
			cmd.Println(field("  Alias:", c.Record.AliasName))
			cmd.Println(field("  Rebuilt:", c.Record.LastRebuiltAt.Format("2006-01-02 15:04:05")))
		} else {
			cmd.Println(field("  Index:", mutedStyle.Render("never built")))
		}
	}
	return nil
}

func runCollectionsShowConfig(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	cfg, err := collectionService.GetConfig(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	if cfg.IsEmpty() {
		cmd.Printf("%s is not configured for indexing.\n", args[0])
		return nil
	}
	return printJSON(cmd, cfg)
}

func runCollectionsSetConfig(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	data, err := readConfigInput(cmd, args[1:])
	if err != nil {
		return err
	}
	cfg, err := domain.ParseCollectionConfig(data)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := collectionService.SetConfig(commandContext(cmd), args[0], cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if cfg.IsEmpty() {
		cmd.Printf("Removed configuration of %s.\n", args[0])
	} else {
		cmd.Printf("Saved %d attribute rules for %s.\n", len(cfg), args[0])
	}
	return nil
}

func readConfigInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}
