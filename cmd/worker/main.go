package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/txdash/internal/app"
	jobmetrics "github.com/odyssey-erp/txdash/internal/jobs"
	"github.com/odyssey-erp/txdash/internal/platform/cache"
	"github.com/odyssey-erp/txdash/internal/platform/db"
	"github.com/odyssey-erp/txdash/internal/transactions"
	"github.com/odyssey-erp/txdash/internal/transactions/postgres"
	"github.com/odyssey-erp/txdash/jobs"
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
	if cfg.DataBackend != app.BackendPostgres {
		logger.Error("worker requires the postgres backend", slog.String("backend", cfg.DataBackend))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	repo := postgres.NewRepository(pool)
	service := transactions.NewService(repo, transactions.NewCache(redisClient, cfg.CacheTTL), cfg.Ranges()).WithLogger(logger)
	metrics := jobmetrics.NewMetrics(nil)

	seedJob := jobs.NewSeedJob(repo, service, cfg.SeedURL, logger, metrics)
	warmupJob := jobs.NewWarmupJob(service, logger, metrics)

	warmupTask, err := jobs.NewWarmupTask(0)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTransactionsSeed, Handler: seedJob.Handle},
			{Type: jobs.TaskTransactionsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
