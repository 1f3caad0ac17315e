package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/pipeline"
)

var (
	exportFormat string
	exportStdout bool
)

// ExportCmd writes matching summaries to a file
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export summaries as csv, json or parquet",
	Long: `Export summaries matching the query filter flags.
Files are written to export.dir with a timestamped name unless --stdout is set.

Examples:
  pipeline export --format parquet
  pipeline export --format csv --min-avg 10 --stdout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !pipeline.IsExportFormat(exportFormat) {
			return errors.InvalidRequestf("unsupported export format %q", exportFormat)
		}
		filter, err := buildFilter()
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if exportStdout {
			_, err := a.Exporter.Stream(cmd.Context(), os.Stdout, exportFormat, filter)
			return err
		}

		result, err := a.Exporter.ExportToFile(cmd.Context(), exportFormat, filter)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Exported %d summaries to %s (%d bytes)", result.RecordCount, result.Path, result.Bytes)
		return nil
	},
}

func init() {
	f := ExportCmd.Flags()
	f.StringVar(&exportFormat, "format", pipeline.FormatCSV, "Output format: csv, json or parquet")
	f.BoolVar(&exportStdout, "stdout", false, "Write to stdout instead of export.dir")
	addFilterFlags(f)
}
