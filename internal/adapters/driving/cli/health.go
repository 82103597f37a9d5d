package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var healthOutput string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the embedding service, LLM and vector store",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVarP(&healthOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if healthService == nil {
		return fmt.Errorf("health %w", errServiceNotConfigured)
	}
	if err := validateOutput(healthOutput); err != nil {
		return err
	}

	report := healthService.Check(commandContext(cmd))

	if done, err := printStructured(cmd, healthOutput, report); done {
		if err != nil {
			return err
		}
	} else {
		cmd.Printf("Status: %s\n\n", report.Status)
		for _, c := range report.Components {
			state := "ok"
			switch {
			case !c.Configured:
				state = "not configured"
			case !c.Healthy:
				state = "unreachable"
			}
			cmd.Printf("  %-13s %s", c.Name, state)
			if c.Detail != "" {
				cmd.Printf(" (%s)", c.Detail)
			}
			cmd.Println()
		}
	}

	if !report.Healthy() {
		return errors.New("one or more components are unhealthy")
	}
	return nil
}
