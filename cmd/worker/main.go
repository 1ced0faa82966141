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

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/vinylworks/vinylops/internal/aggregation"
	"github.com/vinylworks/vinylops/internal/analytics"
	"github.com/vinylworks/vinylops/internal/app"
	"github.com/vinylworks/vinylops/internal/documents"
	"github.com/vinylworks/vinylops/internal/fx"
	jobmetrics "github.com/vinylworks/vinylops/internal/jobs"
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
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	normalizer := fx.NewNormalizer(cfg.DefaultRates())
	calendar := aggregation.DefaultCalendar()
	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	settingsService := settings.NewService(settings.NewRepository(pool), normalizer, analyticsCache, logger)
	recordSource := records.NewSource(records.NewRepository(pool), calendar)
	analyticsService := analytics.NewService(recordSource, settingsService, aggregation.NewEngine(calendar, normalizer), analyticsCache, logger)

	templates, err := documents.NewTemplates()
	if err != nil {
		logger.Error("parse document templates", slog.Any("error", err))
		os.Exit(1)
	}
	store, err := documents.NewFileStore(cfg.DocumentStorageDir)
	if err != nil {
		logger.Error("open document storage", slog.Any("error", err))
		os.Exit(1)
	}
	documentService := documents.NewService(templates, report.NewClient(cfg.GotenbergURL), store, logger)

	warmupJob := jobs.NewAnalyticsWarmupJob(analyticsService, logger, jobMetrics)
	renderJob := jobs.NewDocumentRenderJob(documentService, logger, jobMetrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger, jobMetrics)

	warmupTask, err := jobs.NewAnalyticsWarmupTask(jobs.DefaultWarmupMonths)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.DefaultRetentionHours)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerParallel,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAnalyticsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskDocumentsRender, Handler: renderJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 2 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	opsRouter := chi.NewRouter()
	opsRouter.Method(http.MethodGet, "/metrics", metrics.Handler())
	opsRouter.Route("/jobs", jobs.NewHandler(inspector, logger).MountRoutes)
	opsServer := &http.Server{Addr: cfg.WorkerAddr, Handler: opsRouter, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("starting worker ops server", slog.String("addr", cfg.WorkerAddr))
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker ops server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = opsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
