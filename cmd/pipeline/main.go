package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"go-measure-pipeline/cmd/pipeline/commands"
	"go-measure-pipeline/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Measurement ingestion and summary pipeline",
	Long: `pipeline - ingest measurement CSV files and query per-file summaries.

Available commands:
  serve    - Start the HTTP API
  ingest   - Ingest files from paths, http(s):// or s3:// URIs
  watch    - Ingest files dropped into a directory
  query    - Query file summaries
  recent   - Show the newest records of a file
  export   - Export summaries as csv, json or parquet
  migrate  - Apply database migrations

Examples:
  pipeline ingest data/run1.csv
  pipeline query --min-avg 10
  pipeline serve --addr :9090`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return commands.Setup(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&commands.ConfigPath, "config", "c", "", "Config file (default: pipeline.toml searched upward)")
	flags.BoolVar(&commands.JSONLogs, "json-logs", false, "Emit JSON logs")
	flags.StringVar(&commands.LogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.IngestCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.QueryCmd)
	rootCmd.AddCommand(commands.RecentCmd)
	rootCmd.AddCommand(commands.ExportCmd)
	rootCmd.AddCommand(commands.MigrateCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		logger.Cleanup()
		os.Exit(1)
	}
}
