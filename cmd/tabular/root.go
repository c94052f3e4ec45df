package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/tabular/pkg/cli"
	"mercator-hq/tabular/pkg/config"
	"mercator-hq/tabular/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tabular",
	Short: "Mapped CSV exports from SQL queries",
	Long: `Tabular turns query results into CSV files whose columns, headings and
quoting are defined by a mapping.

Exports are described in a YAML catalog and can be run from the command line,
downloaded over HTTP or written on a cron schedule.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig loads the configuration with environment overrides, applies
// the --log-level flag and installs the default logger.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.SetDefault()

	return cfg, nil
}
