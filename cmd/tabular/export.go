package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mercator-hq/tabular/pkg/catalog"
	"mercator-hq/tabular/pkg/cistring"
	"mercator-hq/tabular/pkg/cli"
	"mercator-hq/tabular/pkg/config"
	"mercator-hq/tabular/pkg/export"
	"mercator-hq/tabular/pkg/sqlsource"
	"mercator-hq/tabular/pkg/tabular"
)

var exportFlags struct {
	output        string
	dir           string
	all           bool
	query         string
	columns       string
	encoding      string
	lineEnding    string
	quoteEscaping bool
	quiet         bool
}

var exportCmd = &cobra.Command{
	Use:   "export [name...]",
	Short: "Run exports and write their CSV",
	Long: `Run catalog exports, or an inline query, and write the CSV.

A single export is written to stdout unless --output is given. Several
exports (or --all) are written to --dir as <name>.csv.

Examples:
  # Export a catalog definition to stdout
  tabular export customers

  # Write to a file, CRLF line endings
  tabular export customers -o customers.csv --line-ending crlf

  # Export every definition into a directory
  tabular export --all --dir out/

  # Export an inline query without a catalog
  tabular export --query "SELECT id, name FROM customers" --columns "id=ID,name"`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.output, "output", "o", "", "output file (stdout when empty or -)")
	f.StringVarP(&exportFlags.dir, "dir", "d", "", "output directory for several exports")
	f.BoolVar(&exportFlags.all, "all", false, "export every catalog definition")
	f.StringVarP(&exportFlags.query, "query", "q", "", "inline SQL query")
	f.StringVar(&exportFlags.columns, "columns", "", "column mapping for --query, e.g. \"id=ID,name\"")
	f.StringVar(&exportFlags.encoding, "encoding", "", "text encoding override, e.g. windows-1252")
	f.StringVar(&exportFlags.lineEnding, "line-ending", "", "line ending override (lf or crlf)")
	f.BoolVar(&exportFlags.quoteEscaping, "quote-escaping", true, "double quotes inside textual values")
	f.BoolVar(&exportFlags.quiet, "quiet", false, "do not report progress for batch exports")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	overrides, err := exportOverrides(cmd)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	if exportFlags.query != "" {
		if len(args) > 0 || exportFlags.all {
			return cli.NewConfigError("query", "--query cannot be combined with export names or --all")
		}
		return runQueryExport(ctx, cmd, cfg, overrides)
	}

	service, source, err := openService(cfg, false)
	if err != nil {
		return err
	}
	defer source.Close()

	names, err := exportNames(service.Catalog(), args, exportFlags.all)
	if err != nil {
		return err
	}

	if len(names) == 1 && exportFlags.dir == "" {
		res, err := service.RunWith(ctx, names[0], overrides)
		if err != nil {
			return cli.NewCommandError("export", err)
		}
		return writeResult(cmd, exportFlags.output, res)
	}

	if exportFlags.dir == "" {
		return cli.NewConfigError("dir", "--dir is required when exporting several definitions")
	}
	return runBatch(ctx, cmd, service, names, overrides)
}

// exportNames resolves the definitions to run: every catalog entry for
// --all, otherwise args with repeats (ignoring case) removed.
func exportNames(c *catalog.Catalog, args []string, all bool) ([]string, error) {
	if all {
		if len(args) > 0 {
			return nil, cli.NewConfigError("all", "--all cannot be combined with export names")
		}
		names := make([]string, 0, c.Len())
		for _, def := range c.List() {
			names = append(names, def.Name)
		}
		return names, nil
	}

	if len(args) == 0 {
		return nil, cli.NewConfigError("name", "an export name, --all or --query is required")
	}
	seen := make(map[string]bool, len(args))
	names := make([]string, 0, len(args))
	for _, name := range args {
		key := cistring.New(name).Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names, nil
}

func runQueryExport(ctx context.Context, cmd *cobra.Command, cfg *config.Config, overrides export.Overrides) error {
	if exportFlags.columns == "" {
		return cli.NewConfigError("columns", "--columns is required with --query")
	}
	m, err := tabular.ParseMapping(exportFlags.columns)
	if err != nil {
		return cli.NewConfigError("columns", err.Error())
	}

	service, source, err := openService(cfg, true)
	if err != nil {
		return err
	}
	defer source.Close()

	res, err := service.RunQuery(ctx, exportFlags.query, m, overrides)
	if err != nil {
		return cli.NewCommandError("export", err)
	}
	return writeResult(cmd, exportFlags.output, res)
}

func runBatch(ctx context.Context, cmd *cobra.Command, service *export.Service, names []string, overrides export.Overrides) error {
	var progress cli.ProgressReporter
	if !exportFlags.quiet {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
		progress.Start(int64(len(names)))
	}

	for i, name := range names {
		res, err := service.RunWith(ctx, name, overrides)
		if err == nil {
			err = export.WriteAtomic(filepath.Join(exportFlags.dir, res.Name+".csv"), res.Reader)
		}
		if err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return cli.NewCommandError("export", err)
		}
		if progress != nil {
			progress.Update(int64(i+1), name)
		}
	}

	if progress != nil {
		progress.Finish()
	}
	return nil
}

// exportOverrides collects the encoding flags the user actually set.
func exportOverrides(cmd *cobra.Command) (export.Overrides, error) {
	var o export.Overrides

	if exportFlags.encoding != "" {
		if _, err := tabular.LookupEncoding(exportFlags.encoding); err != nil {
			return o, cli.NewConfigError("encoding", err.Error())
		}
		o.Encoding = exportFlags.encoding
	}
	if exportFlags.lineEnding != "" {
		if _, err := tabular.ParseLineEnding(exportFlags.lineEnding); err != nil {
			return o, cli.NewConfigError("line-ending", err.Error())
		}
		o.LineEnding = exportFlags.lineEnding
	}
	if cmd.Flags().Changed("quote-escaping") {
		escaping := exportFlags.quoteEscaping
		o.QuoteEscaping = &escaping
	}
	return o, nil
}

// openService opens the configured source and catalog. Inline queries do
// not need a catalog, so adhoc uses an empty one.
func openService(cfg *config.Config, adhoc bool) (*export.Service, *sqlsource.Source, error) {
	var store *catalog.Store
	if adhoc {
		empty, err := catalog.New()
		if err != nil {
			return nil, nil, err
		}
		store = catalog.NewStaticStore(empty)
	} else {
		s, err := catalog.NewStore(cfg.Export.CatalogPath)
		if err != nil {
			return nil, nil, cli.NewConfigError("export.catalog_path", err.Error())
		}
		store = s
	}

	source, err := sqlsource.Open(sqlsource.FromConfig(cfg.Source))
	if err != nil {
		return nil, nil, cli.NewCommandError("open source", err)
	}

	return export.NewService(store, source, export.DefaultsFromConfig(cfg.Export)), source, nil
}

// writeResult copies res to path, or to stdout for "" and "-".
func writeResult(cmd *cobra.Command, path string, res *export.Result) error {
	if path == "" || path == "-" {
		_, err := res.Reader.WriteTo(cmd.OutOrStdout())
		return err
	}
	if err := export.WriteAtomic(path, res.Reader); err != nil {
		return cli.NewCommandError("export", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows (%d bytes) to %s\n", res.Rows, res.Size(), path)
	return nil
}
