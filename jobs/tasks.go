package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockLowStockScan walks the stock table and reports LOW and OUT rows.
	TaskStockLowStockScan = "stock:low_stock_scan"
)

// LowStockScanPayload tunes a low stock scan run.
type LowStockScanPayload struct {
	// BatchSize bounds how many rows a single scan query pages through.
	BatchSize int `json:"batch_size"`
}

// NewLowStockScanTask constructs an Asynq task for the low stock scan.
func NewLowStockScanTask(batchSize int) (*asynq.Task, error) {
	data, err := json.Marshal(LowStockScanPayload{BatchSize: batchSize})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockLowStockScan, data), nil
}
