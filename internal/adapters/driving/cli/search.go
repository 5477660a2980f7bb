package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

var (
	searchLimit     int
	searchNamespace string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed products",
	Long: `Embeds the query text and returns the closest products from the
vector index, scored by cosine similarity. Intended for operator
debugging of index contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().StringVar(&searchNamespace, "namespace", "", "restrict results to one namespace")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.Search(cmd.Context(), args[0], domain.SearchOptions{
		Limit:     searchLimit,
		Namespace: searchNamespace,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		p := results[i].Product
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, p.Name, results[i].Score)
		cmd.Printf("      %s  %s\n", p.Key.DocumentID(), p.Price.String())
		if len(p.Tags) > 0 {
			cmd.Printf("      Tags: %v\n", p.Tags)
		}
		cmd.Println()
	}
	return nil
}
