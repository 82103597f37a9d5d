package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	querySession string
	queryTopK    int
	queryOutput  string
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about your documents",
	Long: `Answers a question from the indexed documents. The question is first
rewritten against the session history, then the closest chunks are
retrieved and passed to the language model.

Without --session a new session is created and its id is printed so
follow-up questions can reuse it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&querySession, "session", "s", "", "session id (a new session is created when empty)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (0 uses retrieval.top_k)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return fmt.Errorf("query %w", errServiceNotConfigured)
	}
	if err := validateOutput(queryOutput); err != nil {
		return err
	}
	ctx := commandContext(cmd)

	sessionID, err := resolveSession(ctx, querySession)
	if err != nil {
		return err
	}

	result, err := queryService.Query(ctx, strings.Join(args, " "), sessionID, resolveTopK(queryTopK))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if done, err := printStructured(cmd, queryOutput, result); done {
		return err
	}

	printQueryResult(cmd, result)
	if querySession == "" {
		cmd.Printf("\nSession: %s\n", sessionID)
	}
	return nil
}

// resolveSession returns id, or a newly created session when id is empty.
func resolveSession(ctx context.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if sessionService == nil {
		return "", fmt.Errorf("session %w", errServiceNotConfigured)
	}
	id, err := sessionService.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// resolveTopK falls back to the configured retrieval depth.
func resolveTopK(k int) int {
	if k > 0 || settingsService == nil {
		return k
	}
	settings, err := settingsService.Get()
	if err != nil {
		return k
	}
	return settings.Retrieval.TopK
}

func printQueryResult(cmd *cobra.Command, result *domain.QueryResult) {
	if result.ContextualizedQuery != "" && result.ContextualizedQuery != result.Query {
		cmd.Printf("Searching for: %s\n\n", result.ContextualizedQuery)
	}
	cmd.Println(result.Response)

	if len(result.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range result.Sources {
			cmd.Printf("  - %s #%d (%.2f)\n", src.Source, src.ChunkIndex, src.Score)
		}
	}

	for _, d := range result.Degraded {
		cmd.PrintErrf("warning: %s\n", d)
	}
}
