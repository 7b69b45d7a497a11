package cli

import (
	"fmt"

	"github.com/VitaminP8/postsync/internal/config"
	"github.com/VitaminP8/postsync/internal/storage/postgres"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Apply the schema to the configured SQL database.

Only the postgres and sqlite storage backends have a schema; the memory
backend is rejected.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			settings, err := sqlSettings(cfg)
			if err != nil {
				return err
			}

			// Open migrates before returning.
			db, err := postgres.Open(settings)
			if err != nil {
				return err
			}
			logger.Info("migration complete", "dialect", settings.Dialect)
			return postgres.Close(db)
		},
	}
}

func sqlSettings(cfg *config.Config) (postgres.Settings, error) {
	switch cfg.Storage {
	case "postgres":
		return postgres.Settings{
			Dialect: "postgres",
			DSN: postgres.DSN(cfg.DB.Host, cfg.DB.User, cfg.DB.Password,
				cfg.DB.Name, cfg.DB.Port, cfg.DB.SSLMode),
		}, nil
	case "sqlite":
		return postgres.Settings{Dialect: "sqlite3", DSN: cfg.SQLitePath}, nil
	default:
		return postgres.Settings{}, fmt.Errorf("storage %q has no schema to migrate", cfg.Storage)
	}
}
