package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"go-measure-pipeline/internal/logger"
	"go-measure-pipeline/internal/store"
)

// MigrateCmd applies pending schema migrations
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, logger.Named("store"))
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}
		pterm.Success.Printfln("Database %s is up to date", cfg.Database.DSN)
		return nil
	},
}
