package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vinylworks/vinylops/cmd/vinylops/cli"
	"github.com/vinylworks/vinylops/internal/aggregation"
	"github.com/vinylworks/vinylops/internal/analytics"
	"github.com/vinylworks/vinylops/internal/analytics/export"
	analytichttp "github.com/vinylworks/vinylops/internal/analytics/http"
	"github.com/vinylworks/vinylops/internal/app"
	"github.com/vinylworks/vinylops/internal/documents"
	"github.com/vinylworks/vinylops/internal/fx"
	"github.com/vinylworks/vinylops/internal/observability"
	"github.com/vinylworks/vinylops/internal/platform/cache"
	"github.com/vinylworks/vinylops/internal/platform/db"
	"github.com/vinylworks/vinylops/internal/records"
	"github.com/vinylworks/vinylops/internal/settings"
	"github.com/vinylworks/vinylops/internal/shared"
	"github.com/vinylworks/vinylops/jobs"
	"github.com/vinylworks/vinylops/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	args := os.Args[1:]
	if !cli.IsServe(args) {
		os.Exit(cli.Run(ctx, args, cliEnv(cfg)))
	}
	if err := serve(ctx, cfg); err != nil {
		os.Exit(1)
	}
}

func cliEnv(cfg *app.Config) cli.Env {
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	return cli.Env{
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		DefaultRates: cfg.DefaultRates(),
		DSN:          cfg.PGDSN,
		Migrations:   cfg.MigrationsDir,
		Migrate:      db.Migrate,
		Jobs: func() (cli.Triggerer, func() error, error) {
			client := jobs.NewClient(redisOpts)
			return client, client.Close, nil
		},
	}
}

func serve(ctx context.Context, cfg *app.Config) error {
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	normalizer := fx.NewNormalizer(cfg.DefaultRates())
	calendar := aggregation.DefaultCalendar()

	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	if err := analyticsCache.ListenForInvalidation(ctx, analytics.BumpChannel); err != nil {
		logger.Warn("analytics invalidation listener", slog.Any("error", err))
	}

	settingsService := settings.NewService(settings.NewRepository(pool), normalizer, analyticsCache, logger)
	recordSource := records.NewSource(records.NewRepository(pool), calendar)
	analyticsService := analytics.NewService(recordSource, settingsService, aggregation.NewEngine(calendar, normalizer), analyticsCache, logger)

	reportClient := report.NewClient(cfg.GotenbergURL)

	templates, err := documents.NewTemplates()
	if err != nil {
		logger.Error("parse document templates", slog.Any("error", err))
		return err
	}
	store, err := documents.NewFileStore(cfg.DocumentStorageDir)
	if err != nil {
		logger.Error("open document storage", slog.Any("error", err))
		return err
	}
	documentService := documents.NewService(templates, reportClient, store, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          observability.NewMetrics(),
		SettingsHandler:  settings.NewHandler(logger, settingsService),
		RecordsHandler:   records.NewHandler(logger, recordSource),
		AnalyticsHandler: analytichttp.NewHandler(logger, analyticsService, export.NewPDFExporter(reportClient)),
		DocumentsHandler: documents.NewHandler(logger, documentService, jobClient, shared.NewIdempotencyStore(pool)),
		ReportHandler:    report.NewHandler(reportClient, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Readiness: map[string]app.ReadinessCheck{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("http server", slog.Any("error", err))
			return err
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
