package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	matchSOW    string
	matchOutput string
)

var matchCmd = &cobra.Command{
	Use:   "match [profile-id...]",
	Short: "Rank candidate profiles against a statement of work",
	Long: `Reads the statement of work and every profile from the uploaded
documents, extracts the required skills and ranks the profiles by how
many of them they mention. Profiles that cannot be read are reported as
warnings and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchSOW, "sow", "", "document id of the statement of work")
	matchCmd.Flags().StringVarP(&matchOutput, "output", "o", outputText, "output format: text, json or yaml")
	_ = matchCmd.MarkFlagRequired("sow")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	if matchService == nil {
		return fmt.Errorf("match %w", errServiceNotConfigured)
	}
	if err := validateOutput(matchOutput); err != nil {
		return err
	}

	report, err := matchService.MatchProfilesToSOW(commandContext(cmd), args, matchSOW)
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	if done, err := printStructured(cmd, matchOutput, report); done {
		return err
	}

	if len(report.Requirements) == 0 {
		cmd.Println("No known skills found in the statement of work.")
	} else {
		cmd.Printf("Requirements: %s\n\n", strings.Join(report.Requirements, ", "))
	}

	for i, m := range report.Matches {
		cmd.Printf("  [%d] %s  %.0f%%\n", i+1, m.Name, m.Score*100)
		if len(m.Matched) > 0 {
			cmd.Printf("      Matched: %s\n", strings.Join(m.Matched, ", "))
		}
		if len(m.AllSkills) > 0 {
			cmd.Printf("      Skills:  %s\n", strings.Join(m.AllSkills, ", "))
		}
	}

	for _, w := range report.Warnings {
		cmd.PrintErrf("warning: %s\n", w)
	}
	return nil
}
