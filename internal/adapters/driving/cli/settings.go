package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, the vector store, chunking and retrieval.

Settings are stored in ~/.sercha-rag/config.toml. Every key can be
overridden with an environment variable, for example SERCHA_RAG_LLM_API_KEY.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long:  `Set a single setting by its dotted key. Run 'sercha-rag settings keys' for the list.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key [embedding|llm|vector_store]",
	Short: "Set an API key without echoing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetKey,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the embedding and LLM providers.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index and search documents.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to rewrite questions and generate answers.`,
	RunE:  runSettingsLLM,
}

// settingsInput is where interactive commands read from.
var settingsInput io.Reader = os.Stdin

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings %w", errServiceNotConfigured)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Printf("  Batch Size: %d\n", settings.Embedding.BatchSize)
	if settings.Embedding.RateLimit > 0 {
		cmd.Printf("  Rate Limit: %g req/s\n", settings.Embedding.RateLimit)
	}
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Vector Store]")
	cmd.Printf("  Backend: %s\n", settings.VectorStore.Backend)
	if settings.VectorStore.Backend == domain.VectorBackendQdrant {
		cmd.Printf("  URL: %s\n", settings.VectorStore.URL)
		if settings.VectorStore.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.VectorStore.APIKey))
		}
	}
	cmd.Printf("  Collection: %s\n", settings.VectorStore.Collection)
	cmd.Printf("  Dimensions: %d\n", settings.VectorStore.Dimensions)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Chunk Size: %d\n", settings.Chunking.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	if settings.Retrieval.HistoryLimit > 0 {
		cmd.Printf("  History Limit: %d messages\n", settings.Retrieval.HistoryLimit)
	} else {
		cmd.Println("  History Limit: whole session")
	}
	cmd.Println()

	cmd.Println("[Sessions]")
	cmd.Printf("  Backend: %s\n", settings.Sessions)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-rag settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	if provider == "" {
		cmd.Println("  Provider: (not set)")
	} else {
		cmd.Printf("  Provider: %s\n", provider.Description())
		cmd.Printf("  Model: %s\n", model)
	}
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings %w", errServiceNotConfigured)
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	value := args[1]
	if strings.HasSuffix(args[0], "api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings %w", errServiceNotConfigured)
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings %w", errServiceNotConfigured)
	}

	section := args[0]
	switch section {
	case "embedding", "llm", "vector_store":
	default:
		return fmt.Errorf("unknown section %q (want embedding, llm or vector_store)", section)
	}

	cmd.Print("Enter API key: ")
	key := readPassword(bufio.NewReader(settingsInput))
	cmd.Println()
	if key == "" {
		return errors.New("API key is required")
	}

	if err := settingsService.Set(section+".api_key", key); err != nil {
		return fmt.Errorf("failed to set API key: %w", err)
	}
	cmd.Printf("%s.api_key = %s\n", section, maskAPIKey(key))
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings %w", errServiceNotConfigured)
	}

	cmd.Println("Sercha RAG Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(settingsInput)

	cmd.Println("Step 1: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	cmd.Println("Documents are indexed with vectors from this provider.")
	cmd.Println()
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("Answers are generated by this provider.")
	cmd.Println()
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings %w", errServiceNotConfigured)
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(settingsInput))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings %w", errServiceNotConfigured)
	}
	return configureLLMProvider(cmd, bufio.NewReader(settingsInput))
}

// providerStep holds what differs between the embedding and LLM prompts.
type providerStep struct {
	label     string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	apply     func(domain.AIProvider, string, string) error
	validate  func() error
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureProvider(cmd, reader, providerStep{
		label:     "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		apply:     settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	})
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureProvider(cmd, reader, providerStep{
		label:     "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		apply:     settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
	})
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, step providerStep) error {
	provider, err := selectProvider(cmd, reader, step.label, step.providers)
	if err != nil {
		return err
	}

	defaultModel := step.models[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := step.apply(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", step.label, err)
	}

	cmd.Print("Validating configuration... ")
	if err := step.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", step.label, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n\n", step.label, provider.Description(), model)
	return nil
}

// selectProvider shows an arrow-key menu on a terminal and a numbered list
// otherwise.
func selectProvider(
	cmd *cobra.Command, reader *bufio.Reader, label string, providers []domain.AIProvider,
) (domain.AIProvider, error) {
	if isTerminal(settingsInput) {
		items := make([]string, len(providers))
		for i, p := range providers {
			items[i] = p.Description()
		}
		prompt := promptui.Select{
			Label: "Select " + label + " Provider",
			Items: items,
		}
		idx, _, err := prompt.Run()
		if err != nil {
			return "", fmt.Errorf("provider selection: %w", err)
		}
		return providers[idx], nil
	}

	cmd.Printf("Select %s Provider\n", label)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	return providers[idx-1], nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readPassword reads a line without echo when settingsInput is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(reader *bufio.Reader) string {
	if f, ok := settingsInput.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
