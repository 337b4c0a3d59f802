package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/godown-app/godown/internal/app"
	jobmetrics "github.com/godown-app/godown/internal/jobs"
	"github.com/godown-app/godown/internal/platform/db"
	"github.com/godown-app/godown/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	scanJob := jobs.NewLowStockScanJob(pool, logger, jobmetrics.NewMetrics(nil))

	scanTask, err := jobs.NewLowStockScanTask(500)
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStockLowStockScan, Handler: scanJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: fmt.Sprintf("@every %s", cfg.LowStockScanInterval), Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
