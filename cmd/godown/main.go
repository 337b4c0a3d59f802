package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/godown-app/godown/internal/app"
	"github.com/godown-app/godown/internal/billing"
	"github.com/godown-app/godown/internal/dealers"
	"github.com/godown-app/godown/internal/masterdata"
	"github.com/godown-app/godown/internal/observability"
	"github.com/godown-app/godown/internal/platform/cache"
	"github.com/godown-app/godown/internal/platform/db"
	"github.com/godown-app/godown/internal/purchase"
	"github.com/godown-app/godown/internal/shared"
	"github.com/godown-app/godown/internal/stock"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	validate := validator.New(validator.WithRequiredStructEnabled())
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	stockRepo := stock.NewRepository(dbpool)
	stockCache := stock.NewCache(redisClient, cfg.StockCacheTTL)
	stockService := stock.NewService(stockRepo, auditLogger, stockCache, metrics)
	stockHandler := stock.NewHandler(logger, stockService, validate)

	masterdataRepo := masterdata.NewRepository(dbpool)
	masterdataService := masterdata.NewService(masterdataRepo)
	masterdataHandler := masterdata.NewHandler(logger, masterdataService, validate)

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo, stockService, masterdataService, auditLogger, idempotencyStore)
	billingHandler := billing.NewHandler(logger, billingService, validate)

	purchaseRepo := purchase.NewRepository(dbpool)
	purchaseService := purchase.NewService(purchaseRepo, stockService, auditLogger, idempotencyStore)
	purchaseHandler := purchase.NewHandler(logger, purchaseService, validate)

	dealersRepo := dealers.NewRepository(dbpool)
	dealersService := dealers.NewService(dealersRepo, purchaseService, auditLogger)
	dealersHandler := dealers.NewHandler(logger, dealersService, validate)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              dbpool,
		StockHandler:      stockHandler,
		MasterDataHandler: masterdataHandler,
		BillingHandler:    billingHandler,
		PurchaseHandler:   purchaseHandler,
		DealersHandler:    dealersHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := app.NewServer(cfg, router)

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
