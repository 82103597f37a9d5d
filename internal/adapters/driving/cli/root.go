// Package cli provides the sercha-rag command line interface.
package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// envPrefix is the prefix of environment variables bound to root flags.
const envPrefix = "SERCHA_RAG"

// version is set at build time via -ldflags.
var version = "dev"

// errServiceNotConfigured is returned when a command runs without its service.
var errServiceNotConfigured = errors.New("service not configured")

var (
	sessionService  driving.SessionService
	documentService driving.DocumentService
	queryService    driving.QueryService
	searchService   driving.SearchService
	matchService    driving.MatchService
	settingsService driving.SettingsService
	healthService   driving.HealthService
)

// Services are the application ports used by the commands.
type Services struct {
	Sessions  driving.SessionService
	Documents driving.DocumentService
	Query     driving.QueryService
	Search    driving.SearchService
	Match     driving.MatchService
	Settings  driving.SettingsService
	Health    driving.HealthService
}

// SetServices injects the application services.
func SetServices(s Services) {
	sessionService = s.Sessions
	documentService = s.Documents
	queryService = s.Query
	searchService = s.Search
	matchService = s.Match
	settingsService = s.Settings
	healthService = s.Health
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Chat with your documents",
	Long: `sercha-rag indexes text, PDF and Word documents into a vector store
and answers questions about them with a language model. Conversations
are kept per session so follow-up questions resolve against history.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(viper.GetBool("verbose"))
		logger.SetJSON(viper.GetBool("log-json"))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log-json", rootCmd.PersistentFlags().Lookup("log-json"))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, or Background when the
// command was executed without one (as in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
