package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage conversation sessions",
	Long:  `Create, list, inspect, clear, or delete conversation sessions.`,
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a new session",
	Args:  cobra.NoArgs,
	RunE:  runSessionCreate,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear [session-id]",
	Short: "Remove every message from a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionClear,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

var sessionShowLast int

func init() {
	sessionShowCmd.Flags().IntVarP(&sessionShowLast, "last", "n", 0, "only show the last n messages (0 for all)")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionCreate(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return fmt.Errorf("session %w", errServiceNotConfigured)
	}

	id, err := sessionService.Create(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	cmd.Println(id)
	return nil
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return fmt.Errorf("session %w", errServiceNotConfigured)
	}

	sessions, err := sessionService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions.")
		return nil
	}

	cmd.Println("Sessions:")
	cmd.Println()
	for _, s := range sessions {
		cmd.Printf("  %s\n", s.ID)
		cmd.Printf("    Messages: %d\n", s.MessageCount)
		cmd.Printf("    Updated:  %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}
	cmd.Printf("Total: %d sessions\n", len(sessions))
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return fmt.Errorf("session %w", errServiceNotConfigured)
	}

	transcript, err := sessionService.RenderForPrompt(commandContext(cmd), args[0], sessionShowLast)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if transcript == "" {
		cmd.Printf("Session %s has no messages.\n", args[0])
		return nil
	}
	cmd.Println(transcript)
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return fmt.Errorf("session %w", errServiceNotConfigured)
	}

	if err := sessionService.Clear(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	cmd.Printf("Cleared session %s\n", args[0])
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return fmt.Errorf("session %w", errServiceNotConfigured)
	}

	if err := sessionService.Delete(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	cmd.Printf("Deleted session %s\n", args[0])
	return nil
}
