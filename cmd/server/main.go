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

	"github.com/odyssey-erp/moneyreport/internal/app"
	"github.com/odyssey-erp/moneyreport/internal/auth"
	"github.com/odyssey-erp/moneyreport/internal/forms"
	"github.com/odyssey-erp/moneyreport/internal/money"
	"github.com/odyssey-erp/moneyreport/internal/observability"
	"github.com/odyssey-erp/moneyreport/internal/platform/cache"
	"github.com/odyssey-erp/moneyreport/internal/platform/db"
	"github.com/odyssey-erp/moneyreport/internal/reports"
	"github.com/odyssey-erp/moneyreport/internal/request"
	"github.com/odyssey-erp/moneyreport/internal/shared"
	"github.com/odyssey-erp/moneyreport/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("migrate database", slog.Any("error", err))
		os.Exit(1)
	}

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

	metrics := observability.NewMetrics()
	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		_ = inspector.Close()
	}()

	reportRepo := reports.NewRepository(pool, shared.NewApprovalRecorder(pool, logger), shared.NewIdempotencyStore(pool))
	nextSteps := reports.NewRedisNextSteps(redisClient, cfg.NextStepTTL)
	reportService := reports.NewService(reportRepo, nextSteps, money.NewFormatter(cfg.AppLocale), logger)
	reportService.SetRefreshEnqueuer(jobClient)
	reportService.SetObserver(metrics)

	flow := request.NewFlow(request.NewRedisStore(redisClient, cfg.DraftTTL))

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		AuthHandler:    auth.NewHandler(logger, sessionManager, cfg.IsDevelopment(), cfg.IsProduction()),
		ReportHandler:  reports.NewHandler(logger, reportService),
		RequestHandler: request.NewHandler(logger, flow),
		FormsHandler:   forms.NewHandler(forms.NewValidator()),
		JobHandler:     jobs.NewHandler(inspector, logger),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
