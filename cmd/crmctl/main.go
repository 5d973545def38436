// Command crmctl runs administrative tasks against the CRM database:
// schema migrations, bootstrap users and demo data.
package main

import (
	"fmt"
	"os"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every subcommand shares once the root command has run
type app struct {
	cfg *config.Config
	log *zap.Logger
}

var (
	configPath string
	logLevel   string
	state      app
)

var rootCmd = &cobra.Command{
	Use:           "crmctl",
	Short:         "CRM administration tool",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		log, err := logger.New(logger.Config{
			Level:  logLevel,
			Format: "console",
			Output: "stdout",
		})
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		state = app{cfg: cfg, log: log}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if state.log != nil {
			_ = state.log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config.toml in ., ./backend or /app)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newMigrateCmd(), newSeedCmd(), newCreateAdminCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
