package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/godown-app/godown/internal/jobs"
	"github.com/godown-app/godown/internal/stock"
)

// LowStockScanJob walks stock rows and reports every LOW and OUT position.
type LowStockScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewLowStockScanJob initialises the low stock scan handler.
func NewLowStockScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = 500
	}

	start := j.now()
	tracker := j.Metrics.Track(TaskStockLowStockScan)
	logger := j.logger().With(slog.Int("batch_size", payload.BatchSize))
	logger.Info("starting low stock scan")

	scanned, low, out, err := j.scan(ctx, payload.BatchSize)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.SetStockPositions(low, out)

	logger.Info("completed low stock scan",
		slog.Int("scanned", scanned),
		slog.Int("low", low),
		slog.Int("out", out),
		slog.Duration("duration", time.Since(start)),
	)
	return tracker.End(nil)
}

func (j *LowStockScanJob) scan(ctx context.Context, batchSize int) (scanned, low, out int, err error) {
	if j.Pool == nil {
		return 0, 0, 0, errors.New("low stock scan: pool not configured")
	}

	var lastProduct, lastWarehouse string
	for {
		rows, err := j.Pool.Query(ctx, `
			SELECT product_id, warehouse_id, boxes, loose_items, pieces_per_box, low_stock_boxes, low_stock_items
			FROM stocks
			WHERE (product_id::text, warehouse_id::text) > ($1, $2)
			ORDER BY product_id::text, warehouse_id::text
			LIMIT $3`, lastProduct, lastWarehouse, batchSize)
		if err != nil {
			return scanned, low, out, err
		}

		batch := 0
		for rows.Next() {
			var rec stock.Record
			var productID, warehouseID string
			if err := rows.Scan(&productID, &warehouseID, &rec.Boxes, &rec.LooseItems, &rec.PiecesPerBox, &rec.LowStockBoxes, &rec.LowStockItems); err != nil {
				rows.Close()
				return scanned, low, out, err
			}
			lastProduct, lastWarehouse = productID, warehouseID
			batch++
			scanned++
			switch rec.Status() {
			case stock.StatusLow:
				low++
				j.logger().Warn("low stock",
					slog.String("product_id", productID),
					slog.String("warehouse_id", warehouseID),
					slog.Int64("total_pieces", rec.TotalPieces()),
				)
			case stock.StatusOut:
				out++
				j.logger().Warn("out of stock",
					slog.String("product_id", productID),
					slog.String("warehouse_id", warehouseID),
				)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return scanned, low, out, err
		}
		if batch < batchSize {
			return scanned, low, out, nil
		}
	}
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStockLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskStockLowStockScan))
}

func (j *LowStockScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
