package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emonupg/essync/internal/core/domain"
)

var rebuildJSON bool

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [collection]",
	Short: "Rebuild search indices",
	Long: `Builds a fresh versioned index, validates it and moves the alias onto it.
If a collection is provided, only that collection is rebuilt.
Otherwise, every configured collection is rebuilt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRebuild,
}

var validateCmd = &cobra.Command{
	Use:   "validate <collection> <index>",
	Short: "Validate an index against the content repository",
	Long: `Checks that the index exists, holds as many documents as the repository
has live records, and contains a random sample of them.`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

func init() {
	rebuildCmd.Flags().BoolVar(&rebuildJSON, "json", false, "output results as JSON")
	validateCmd.Flags().BoolVar(&rebuildJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(validateCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	if rebuildOrchestrator == nil {
		return errors.New("rebuild service not configured")
	}
	ctx := commandContext(cmd)

	var results []domain.RebuildResult
	if len(args) > 0 {
		collection := args[0]
		if !rebuildJSON {
			cmd.Printf("Rebuilding %s...\n", collection)
		}
		result, err := rebuildOrchestrator.RebuildCollection(ctx, collection)
		if err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}
		results = append(results, *result)
	} else {
		if !rebuildJSON {
			cmd.Println("Rebuilding all configured collections...")
		}
		full, err := rebuildOrchestrator.RebuildAll(ctx)
		if err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}
		results = full.Results
	}

	if rebuildJSON {
		if err := printJSON(cmd, results); err != nil {
			return err
		}
	} else {
		printRebuildResults(cmd, results)
	}

	for i := range results {
		if !results[i].Success {
			return errors.New("one or more rebuilds failed")
		}
	}
	return nil
}

func printRebuildResults(cmd *cobra.Command, results []domain.RebuildResult) {
	if len(results) == 0 {
		cmd.Println("No configured collections.")
		return
	}

	for i := range results {
		r := &results[i]
		cmd.Printf("%s %s\n", mark(r.Success), r.CollectionName)
		if r.NewIndexName != "" {
			cmd.Println(field("New index:", r.NewIndexName))
		}
		if r.OldIndexName != "" {
			cmd.Println(field("Old index:", r.OldIndexName))
		}
		for _, w := range r.Warnings {
			cmd.Println("  " + warningStyle.Render("warning: "+w))
		}
		if r.Error != "" {
			cmd.Println(field("Error:", r.Error))
		}
		if r.Validation != nil && !r.Validation.Success {
			printChecks(cmd, r.Validation.Checks)
		}
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	if rebuildValidator == nil {
		return errors.New("validator not configured")
	}

	result, err := rebuildValidator.ValidateRebuild(commandContext(cmd), args[0], args[1])
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if rebuildJSON {
		if err := printJSON(cmd, result); err != nil {
			return err
		}
	} else {
		cmd.Printf("%s %s -> %s\n", mark(result.Success), result.CollectionName, result.IndexName)
		printChecks(cmd, result.Checks)
		if result.Error != "" {
			cmd.Println(field("Error:", result.Error))
		}
	}

	if !result.Success {
		return domain.ErrValidationFailed
	}
	return nil
}

func printChecks(cmd *cobra.Command, checks []domain.ValidationCheck) {
	for _, c := range checks {
		cmd.Printf("  %s %-16s %s\n", mark(c.Passed), c.Type, c.Message)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
