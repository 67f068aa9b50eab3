package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"localbiz/internal/adapters/observability"
	"localbiz/internal/adapters/places"
	redisad "localbiz/internal/adapters/redis"
	"localbiz/internal/app"
	"localbiz/internal/domain"
	"localbiz/internal/shared"
	"localbiz/internal/storage/sqlstore"
)

var rootCmd = &cobra.Command{
	Use:           "localbiz-ingestor",
	Short:         "Run one sync of every catalog category and exit",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().Bool("migrate", false, "apply pending migrations first")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	catalog, err := shared.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}
	log.Info().
		Str("base", cfg.PlacesBase).
		Str("driver", cfg.DBDriver).
		Int("categories", len(catalog)).
		Msg("ingestor starting")

	if doMigrate, _ := cmd.Flags().GetBool("migrate"); doMigrate {
		if err := sqlstore.MigrateUp(cfg.DBDriver, cfg.DatabaseDSN); err != nil {
			return err
		}
	}

	db, err := sqlstore.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Msg("db ping ok")

	repo, err := sqlstore.New(db, cfg.DBDriver)
	if err != nil {
		return err
	}
	// lists cached by a running API must not outlive this run
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}
	client := places.New(cfg.PlacesBase, cfg.PlacesKey, places.WithAnchor(cfg.SearchLoc, cfg.SearchRadius))
	svc := app.NewSyncService(client, repo, cache, catalog)

	ctx := cmd.Context()
	if cfg.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.SyncTimeout)
		defer cancel()
	}

	rep, err := svc.Run(ctx, app.TriggerCLI)
	for _, c := range rep.Categories {
		log.Info().Str("category", c.Slug).Str("status", c.Status).Int("businesses", c.Businesses).Msg("category result")
	}
	if err != nil {
		return err
	}
	log.Info().Str("run_id", rep.RunID).Int("businesses", rep.Businesses()).Msg("ingestion completed")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("ingestion failed")
		os.Exit(1)
	}
}
