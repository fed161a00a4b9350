package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/moneyreport/internal/app"
	jobmetrics "github.com/odyssey-erp/moneyreport/internal/jobs"
	"github.com/odyssey-erp/moneyreport/internal/money"
	"github.com/odyssey-erp/moneyreport/internal/platform/cache"
	"github.com/odyssey-erp/moneyreport/internal/platform/db"
	"github.com/odyssey-erp/moneyreport/internal/reports"
	"github.com/odyssey-erp/moneyreport/internal/request"
	"github.com/odyssey-erp/moneyreport/internal/shared"
	"github.com/odyssey-erp/moneyreport/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	idempotency := shared.NewIdempotencyStore(pool)
	reportRepo := reports.NewRepository(pool, shared.NewApprovalRecorder(pool, logger), idempotency)
	reportService := reports.NewService(reportRepo, reports.NewRedisNextSteps(redisClient, cfg.NextStepTTL), money.NewFormatter(cfg.AppLocale), logger)
	drafts := request.NewRedisStore(redisClient, cfg.DraftTTL)

	metrics := jobmetrics.NewMetrics(nil)
	nextStepJob := jobs.NewNextStepJob(reportService, logger, metrics)
	maintenanceJob := jobs.NewMaintenanceJob(drafts, idempotency, logger, metrics)

	sweepTask, err := jobs.NewNextStepSweepTask(0, 0)
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	idempotencyTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyRetention)
	if err != nil {
		logger.Error("build idempotency task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskNextStepRefresh, Handler: nextStepJob.HandleRefresh},
			{Type: jobs.TaskNextStepSweep, Handler: nextStepJob.HandleSweep},
			{Type: jobs.TaskDraftCleanup, Handler: maintenanceJob.HandleDraftCleanup},
			{Type: jobs.TaskIdempotencyCleanup, Handler: maintenanceJob.HandleIdempotencyCleanup},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
			{Spec: "0 * * * *", Task: jobs.NewDraftCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: idempotencyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
