package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-measure-pipeline/internal/logger"
	"go-measure-pipeline/internal/watch"
)

var watchPattern string

// WatchCmd ingests files as they land in a directory
var WatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest CSV files dropped into a directory",
	Long: `Watch a directory and ingest each matching file once it stops changing.

The directory defaults to watch.dir and the quiet period to watch.settle.
A file written again later is ingested again, replacing its summary.

Examples:
  pipeline watch
  pipeline watch ./incoming --pattern '*.csv.gz'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dir := cfg.Watch.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		pattern := cfg.Watch.Pattern
		if watchPattern != "" {
			pattern = watchPattern
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		log := logger.Named("watch")
		w, err := watch.New(dir, pattern, cfg.Watch.Settle, func(ctx context.Context, path string) error {
			result, err := a.IngestURI(ctx, path)
			if err != nil {
				return err
			}
			log.Infow("Ingested dropped file",
				"file", result.FileName,
				"records", result.RecordCount,
				"median_value", result.Summary.MedianValue)
			return nil
		}, log)
		if err != nil {
			return err
		}
		return w.Run(ctx)
	},
}

func init() {
	WatchCmd.Flags().StringVar(&watchPattern, "pattern", "", "File name glob (overrides watch.pattern)")
}
