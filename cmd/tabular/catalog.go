package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mercator-hq/tabular/pkg/catalog"
	"mercator-hq/tabular/pkg/cli"
	"mercator-hq/tabular/pkg/tabular"
)

var catalogFlags struct {
	format string
	search string
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the export catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List export definitions",
	Long: `List the definitions in the export catalog.

Examples:
  tabular catalog list
  tabular catalog list --search customer --format json
  tabular catalog list --format csv > exports.csv`,
	Args: cobra.NoArgs,
	RunE: runCatalogList,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a catalog file",
	Long: `Parse and validate a catalog file without opening the data source.
The configured catalog path is used when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogValidate,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogValidateCmd)

	catalogListCmd.Flags().StringVarP(&catalogFlags.format, "format", "f", "text", "output format (text, json, csv)")
	catalogListCmd.Flags().StringVarP(&catalogFlags.search, "search", "s", "", "only list definitions whose name or description contains this text")
}

// catalogRow is one listed definition.
type catalogRow struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Columns     string `json:"columns"`
	Schedule    string `json:"schedule,omitempty"`
	Output      string `json:"output,omitempty"`
}

var catalogRowMapping = tabular.MustMapping(
	tabular.Column{Source: "Name", Heading: "name"},
	tabular.Column{Source: "Description", Heading: "description"},
	tabular.Column{Source: "Columns", Heading: "columns"},
	tabular.Column{Source: "Schedule", Heading: "schedule"},
	tabular.Column{Source: "Output", Heading: "output"},
)

func catalogRows(defs []*catalog.Definition) []catalogRow {
	rows := make([]catalogRow, 0, len(defs))
	for _, def := range defs {
		rows = append(rows, catalogRow{
			Name:        def.Name,
			Description: def.Description,
			Columns:     def.Mapping().String(),
			Schedule:    def.Schedule,
			Output:      def.Output,
		})
	}
	return rows
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(catalogFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := catalog.Load(cfg.Export.CatalogPath)
	if err != nil {
		return cli.NewCommandError("catalog list", err)
	}

	rows := catalogRows(c.Search(catalogFlags.search))
	if format == cli.FormatText {
		return writeCatalogTable(cmd.OutOrStdout(), rows)
	}
	return cli.NewFormatter(format, catalogRowMapping).FormatTo(cmd.OutOrStdout(), rows)
}

func writeCatalogTable(w io.Writer, rows []catalogRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOLUMNS\tSCHEDULE\tDESCRIPTION")
	for _, r := range rows {
		schedule := r.Schedule
		if schedule == "" {
			schedule = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Columns, schedule, r.Description)
	}
	return tw.Flush()
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Export.CatalogPath
	}

	c, err := catalog.Load(path)
	if err != nil {
		return cli.NewCommandError("catalog validate", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d definitions (%d scheduled)\n", path, c.Len(), len(c.Scheduled()))
	return nil
}
