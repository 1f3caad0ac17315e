package commands

import (
	"context"

	"github.com/spf13/cobra"

	"go-measure-pipeline/internal/app"
	"go-measure-pipeline/internal/config"
	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/logger"
)

// Global flags, bound by the root command
var (
	ConfigPath string
	JSONLogs   bool
	LogLevel   string
)

var cfg *config.Config

// Setup loads configuration and initializes the global logger.
// Command-line flags override the config file's log section.
func Setup(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(ConfigPath)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	if cmd.Flags().Changed("json-logs") {
		cfg.Log.JSON = JSONLogs
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = LogLevel
	}
	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Level); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	return nil
}

// openApp builds the application from the loaded configuration
func openApp(ctx context.Context) (*app.App, error) {
	if cfg == nil {
		return nil, errors.AssertionFailedf("configuration not loaded")
	}
	return app.New(ctx, cfg, logger.Logger)
}
