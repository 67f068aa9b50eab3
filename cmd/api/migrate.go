package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"localbiz/internal/storage/sqlstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the embedded schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := loadConfig()
		if err := sqlstore.MigrateUp(cfg.DBDriver, cfg.DatabaseDSN); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.DBDriver).Msg("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long: `Roll back the schema by --steps migrations, or all of them with --all.
WARNING: rolling back drops tables and their data.`,
	RunE: runMigrateDown,
}

func init() {
	migrateDownCmd.Flags().Int("steps", 1, "number of migrations to roll back")
	migrateDownCmd.Flags().Bool("all", false, "roll back every migration")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	steps, err := cmd.Flags().GetInt("steps")
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	if !all && steps < 1 {
		return fmt.Errorf("--steps must be at least 1, got %d", steps)
	}

	cfg := loadConfig()
	m, err := sqlstore.NewMigrator(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer m.Close()

	if all {
		err = m.Down()
	} else {
		err = m.Steps(-steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}

	v, dirty, verr := m.Version()
	switch {
	case errors.Is(verr, migrate.ErrNilVersion):
		log.Info().Msg("all migrations rolled back")
	case verr != nil:
		log.Warn().Err(verr).Msg("read schema version")
	default:
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("migrations rolled back")
	}
	return nil
}
