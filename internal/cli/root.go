// Package cli implements the locallibrary command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/logging"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// cfg is loaded once before any command runs.
	cfg *config.Config

	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "locallibrary",
	Short: "Local library catalog with an admin site and JSON API",
	Long: `locallibrary manages a small library catalog: authors, books, genres,
languages, publishers and the physical copies lent to readers.

Run without a command to start the HTTP server.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json); environment variables take precedence")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(createSuperuserCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute(buildVersion, buildCommit string) {
	version = buildVersion
	commit = buildCommit
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	loaded, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}
