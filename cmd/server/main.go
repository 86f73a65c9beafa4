// Command server runs the Kibo gamification API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/aimd54/kibo-gamification/internal/api/dashboard"
	"github.com/aimd54/kibo-gamification/internal/cache"
	"github.com/aimd54/kibo-gamification/internal/config"
	"github.com/aimd54/kibo-gamification/internal/gateway"
	"github.com/aimd54/kibo-gamification/internal/notify"
	"github.com/aimd54/kibo-gamification/internal/realtime"
	"github.com/aimd54/kibo-gamification/internal/repository"
	"github.com/aimd54/kibo-gamification/internal/service/gamification"
	"github.com/aimd54/kibo-gamification/internal/service/reminders"
	"github.com/aimd54/kibo-gamification/internal/service/scheduler"
	"github.com/aimd54/kibo-gamification/internal/service/session"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if cfg.Database.Postgres.RunMigrations {
		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if cfg.Gamification.CatalogPath != "" {
		catalog, err := repository.LoadCatalog(cfg.Gamification.CatalogPath)
		if err != nil {
			return err
		}
		if err := repository.SeedCatalog(db, catalog); err != nil {
			return err
		}
		log.Info().
			Int("levels", len(catalog.Levels)).
			Int("achievements", len(catalog.Achievements)).
			Msg("Catalog seeded")
	}

	store, err := cache.NewRedisStore(ctx, &cfg.Database.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	log.Info().Str("addr", cfg.Database.Redis.Addr()).Msg("Connected to Redis")

	queryCache := cache.NewQueryCache(store, log)
	feed := realtime.NewRedisFeed(store.Client(), log)

	// One subscription covers every user; handlers only invalidate.
	stopInvalidator, err := realtime.NewInvalidator(queryCache, feed, log).Start(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to start change feed: %w", err)
	}
	defer stopInvalidator()

	rules, err := gateway.RulesFromConfig(&cfg.Gamification)
	if err != nil {
		return err
	}
	gw := gateway.New(db, rules, feed, clock, log)

	factory := session.NewFactory(
		gamification.NewAccessor(gw, log),
		queryCache,
		cfg.Gamification.CacheTTLDuration(),
		log,
	)

	var reminderService dashboard.ReminderService
	if cfg.Reminders.Enabled {
		localDB, err := repository.NewLocalDB(cfg.Reminders.StorePath, log)
		if err != nil {
			return err
		}
		defer func() { _ = localDB.Close() }()

		reminderScheduler := reminders.NewScheduler(
			clock,
			repository.NewReminderRepository(localDB),
			notify.NewClient(&cfg.Notify, log),
			reminders.StaticPermission(cfg.Reminders.PermissionGranted),
			cfg.Reminders.DefaultLeadMinutes,
			log,
		)
		defer reminderScheduler.Stop()

		if _, err := reminderScheduler.Restore(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to restore reminders")
		}
		reminderService = reminderScheduler
	}

	maintenance := scheduler.NewService(&cfg.Scheduler, gw, clock, log)
	if err := maintenance.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer maintenance.Stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := dashboard.NewHandler(factory, gw, reminderService, clock, dashboard.Options{
		HeatmapDays: cfg.Gamification.HeatmapDays,
		Location:    rules.Location,
	}, log)
	router := dashboard.NewRouter(handler, dashboard.NewTokenVerifier(&cfg.Auth), dashboard.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
		Checks: map[string]dashboard.HealthCheck{
			"database": db.Health,
			"redis": func() error {
				checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return store.Health(checkCtx)
			},
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
