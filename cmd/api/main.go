package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hamed0406/storecheck/internal/config"
	"github.com/hamed0406/storecheck/internal/httpapi"
	apimw "github.com/hamed0406/storecheck/internal/httpapi/middleware"
	"github.com/hamed0406/storecheck/internal/logging"
	"github.com/hamed0406/storecheck/internal/notify"
	"github.com/hamed0406/storecheck/internal/postgrest"
	"github.com/hamed0406/storecheck/internal/probe"
	"github.com/hamed0406/storecheck/internal/repo"
	"github.com/hamed0406/storecheck/internal/repo/memory"
	"github.com/hamed0406/storecheck/internal/repo/postgres"
	"github.com/hamed0406/storecheck/internal/scheduler"
	"github.com/hamed0406/storecheck/internal/schema"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		reports repo.ReportStore
		alerts  repo.AlertStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("db_connect_error", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("db_schema_error", zap.Error(err))
		}
		reports, alerts = pg, pg
		logger.Info("store_backend", zap.String("kind", "postgres"))
	} else {
		mem := memory.New()
		reports, alerts = mem, mem
		logger.Info("store_backend", zap.String("kind", "memory"))
	}

	client := postgrest.NewClient(cfg.SupabaseURL, cfg.AnonKey, cfg.HTTPTimeout)
	// probe output goes to the log only in server mode
	checker := probe.NewStoreChecker(client, cfg.Table, nil, logger)
	if cfg.DatabaseURL != "" {
		insp, err := schema.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("schema_inspector_unavailable", zap.Error(err))
		} else {
			defer insp.Close()
			checker.Inspector = insp
		}
	}

	rechecker := scheduler.NewRechecker(logger, checker, reports, cfg.CheckInterval, time.Minute)
	go rechecker.Run(ctx)

	notifiers := notify.Multi{notify.NewLog(logger)}
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		notifiers = append(notifiers, slack)
	} else {
		logger.Info("slack_alerts_disabled", zap.String("reason", "SLACK_WEBHOOK_URL empty"))
	}
	alerter := scheduler.NewAlerter(logger, reports, alerts, notifiers, scheduler.AlerterConfig{
		AlertOnRecovery: cfg.AlertOnRecovery,
		Cooldown:        cfg.AlertCooldown,
	})
	go func() { _ = alerter.Run(ctx) }()

	api := httpapi.NewServer(logger, reports, rechecker, cfg.Table)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.String("target", cfg.SupabaseURL),
		zap.String("table", cfg.Table),
		zap.Duration("check_interval", cfg.CheckInterval),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_error", zap.Error(err))
	}
	logger.Info("api_stopped")
}
