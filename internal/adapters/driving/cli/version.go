package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

var versionOutput string

// buildInfo is what `version -o json` prints. Backends are included when
// settings are available so bug reports carry the storage layout.
type buildInfo struct {
	Version     string `json:"version" yaml:"version"`
	GoVersion   string `json:"go_version" yaml:"go_version"`
	Platform    string `json:"platform" yaml:"platform"`
	VectorStore string `json:"vector_store,omitempty" yaml:"vector_store,omitempty"`
	Sessions    string `json:"sessions,omitempty" yaml:"sessions,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(versionOutput); err != nil {
		return err
	}

	info := buildInfo{
		Version:   version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			info.VectorStore = s.VectorStore.Backend.String()
			info.Sessions = s.Sessions.String()
		}
	}

	if done, err := printStructured(cmd, versionOutput, info); done {
		return err
	}
	cmd.Printf("sercha-rag version %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
	return nil
}
