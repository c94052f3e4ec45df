package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/tabular/pkg/cli"
	"mercator-hq/tabular/pkg/sqlsource"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables of the configured data source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		source, err := sqlsource.Open(sqlsource.FromConfig(cfg.Source))
		if err != nil {
			return cli.NewCommandError("tables", err)
		}
		defer source.Close()

		tables, err := source.Tables(cmd.Context())
		if err != nil {
			return cli.NewCommandError("tables", err)
		}
		for _, t := range tables {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}
