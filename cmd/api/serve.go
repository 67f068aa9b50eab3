package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	server "localbiz/internal/adapters/http_server"
	"localbiz/internal/adapters/observability"
	"localbiz/internal/adapters/places"
	redisad "localbiz/internal/adapters/redis"
	"localbiz/internal/adapters/scheduler"
	"localbiz/internal/app"
	"localbiz/internal/domain"
	"localbiz/internal/shared"
	"localbiz/internal/storage/sqlstore"
)

const (
	requestTimeout  = 15 * time.Second
	shutdownTimeout = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the daily sync",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "apply pending migrations before serving")
	serveCmd.Flags().Bool("no-schedule", false, "disable the scheduled sync")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()

	catalog, err := shared.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}

	if doMigrate, _ := cmd.Flags().GetBool("migrate"); doMigrate {
		if err := sqlstore.MigrateUp(cfg.DBDriver, cfg.DatabaseDSN); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
	}

	// db
	db, err := sqlstore.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("driver", cfg.DBDriver).Msg("database connection ok")

	// deps
	repo, err := sqlstore.New(db, cfg.DBDriver)
	if err != nil {
		return err
	}
	cache := newCache(cmd.Context(), cfg)
	client := places.New(cfg.PlacesBase, cfg.PlacesKey, places.WithAnchor(cfg.SearchLoc, cfg.SearchRadius))
	syncSvc := app.NewSyncService(client, repo, cache, catalog)
	q := app.NewQueryService(repo, client, cache, catalog, cfg.CacheTTL)

	// metrics
	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// scheduler
	var sched *scheduler.Scheduler
	if off, _ := cmd.Flags().GetBool("no-schedule"); !off {
		sched, err = scheduler.New(cfg.SyncSchedule, syncSvc, cfg.SyncTimeout)
		if err != nil {
			return err
		}
		sched.Start()
	}

	// http
	srv := server.New(cfg.CORSOrigins, requestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:           q,
		Sync:        syncSvc,
		Limiter:     server.NewRefreshLimiter(cfg.RefreshPerMin),
		SyncTimeout: cfg.SyncTimeout,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Int("categories", len(catalog)).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			log.Warn().Err(err).Msg("scheduled sync still running at shutdown")
		}
	}
	log.Info().Msg("bye")
	return nil
}

// newCache returns nil when REDIS_ADDR is empty; the services then read
// straight from the store.
func newCache(ctx context.Context, cfg shared.Config) domain.Cache {
	if cfg.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR not set; caching disabled")
		return nil
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		// cache errors are tolerated per request, so keep it
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}
	return c
}
