package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	searchOutput string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs a semantic similarity search across all indexed chunks.
Results are ordered by cosine similarity, highest first. No answer is generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return fmt.Errorf("search %w", errServiceNotConfigured)
	}
	if err := validateOutput(searchOutput); err != nil {
		return err
	}

	results, err := searchService.Search(commandContext(cmd), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if done, err := printStructured(cmd, searchOutput, results); done {
		return err
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, results[i].Source, results[i].ChunkIndex, results[i].Score)
		cmd.Printf("      %s\n", snippet(results[i].Text, 160))
		cmd.Println()
	}
	return nil
}

// snippet flattens whitespace and cuts text to at most limit runes.
func snippet(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}
