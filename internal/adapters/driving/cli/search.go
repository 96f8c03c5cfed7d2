package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emonupg/essync/internal/core/domain"
)

var (
	searchLimit      int
	searchJSON       bool
	searchCollection string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Runs a query string search against a collection alias, the global alias
when it exists, or the fallback index alias.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVarP(&searchCollection, "collection", "c", "", "search a single collection")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Collection: searchCollection,
		Limit:      searchLimit,
	}

	hits, err := searchService.Search(commandContext(cmd), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, hits)
	}

	return outputSearchTable(cmd, hits)
}

// titleFields are tried in order to label a hit.
var titleFields = []string{"title", "name", "slug"}

func outputSearchTable(cmd *cobra.Command, hits []domain.SearchHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(heading("Results"))
	cmd.Println()
	for i := range hits {
		title := hits[i].ID
		for _, f := range titleFields {
			if s := domain.ValueString(hits[i].Source[f]); s != "" {
				title = s
				break
			}
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, hits[i].Score)
		cmd.Printf("      %s\n", mutedStyle.Render(hits[i].Index+"/"+hits[i].ID))
		if snippet := snippetOf(hits[i].Source); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

const snippetLength = 120

// snippetOf returns the start of the longest string field.
func snippetOf(doc domain.Document) string {
	longest := ""
	for _, v := range doc {
		if s, ok := v.(string); ok && len(s) > len(longest) {
			longest = s
		}
	}
	longest = strings.Join(strings.Fields(longest), " ")
	if runes := []rune(longest); len(runes) > snippetLength {
		return string(runes[:snippetLength]) + "..."
	}
	return longest
}
