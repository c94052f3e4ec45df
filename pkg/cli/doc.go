/*
Package cli provides helpers shared by the tabular command: error types,
output formatters, a progress reporter for batch exports and signal
handling.

Output formatting:

	formatter := cli.NewFormatter(cli.FormatCSV, mapping)
	if err := formatter.FormatTo(os.Stdout, rows); err != nil {
		return err
	}

The CSV formatter renders through tabular.EncodeObjects, so command output
follows the same quoting rules as exports.

Signal handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
