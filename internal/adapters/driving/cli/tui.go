package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Chat with your documents in the terminal",
	Long: `Opens an interactive terminal chat. Each question is answered from the
uploaded documents, and follow-up questions are resolved against the
conversation so far.

Controls:
  Enter    - Send question
  Tab      - Browse documents
  Ctrl+N   - Start a new session
  PgUp/PgDn - Scroll the transcript
  F1       - Help
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var (
	chatSession string
	chatTopK    int
)

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "resume an existing session")
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "chunks retrieved per question (default from settings)")
	rootCmd.AddCommand(chatCmd)
}

// newChatApp builds the TUI from the configured services.
func newChatApp(cmd *cobra.Command) (*tui.App, error) {
	if queryService == nil || sessionService == nil {
		return nil, fmt.Errorf("chat %w", errServiceNotConfigured)
	}

	ports := tui.NewPorts(queryService, sessionService)
	ports.Documents = documentService

	app, err := tui.NewApp(ports, tui.Options{
		SessionID: chatSession,
		TopK:      resolveTopK(chatTopK),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	return app.WithContext(commandContext(cmd)), nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	// Recover to print a stack trace instead of leaving the terminal in alt screen mode
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := newChatApp(cmd)
	if err != nil {
		return err
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if id := app.SessionID(); id != "" {
		cmd.Printf("Session: %s\n", id)
	}
	return nil
}
