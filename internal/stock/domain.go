package stock

import (
	"time"

	"github.com/google/uuid"
)

// Status classifies a stock row for replenishment decisions.
type Status string

const (
	// StatusOK means pieces on hand exceed the configured threshold.
	StatusOK Status = "OK"
	// StatusLow means pieces on hand are at or below the threshold.
	StatusLow Status = "LOW"
	// StatusOut means no pieces remain.
	StatusOut Status = "OUT"
)

// Record is the stock row for one product in one warehouse. Quantities are
// kept as boxes plus loose pieces; LooseItems is always below PiecesPerBox
// after a mutation.
type Record struct {
	ProductID     uuid.UUID `json:"product_id"`
	WarehouseID   uuid.UUID `json:"warehouse_id"`
	Boxes         int64     `json:"boxes"`
	LooseItems    int64     `json:"loose_items"`
	PiecesPerBox  int64     `json:"pieces_per_box"`
	LowStockBoxes *int64    `json:"low_stock_boxes,omitempty"`
	LowStockItems *int64    `json:"low_stock_items,omitempty"`
	Version       int64     `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TotalPieces derives the piece count from boxes and loose items.
func (r Record) TotalPieces() int64 {
	return r.Boxes*r.PiecesPerBox + r.LooseItems
}

// Threshold returns the low-stock threshold in pieces. The second return is
// false when no threshold is configured.
func (r Record) Threshold() (int64, bool) {
	if r.LowStockBoxes == nil && r.LowStockItems == nil {
		return 0, false
	}
	var boxes, items int64
	if r.LowStockBoxes != nil {
		boxes = *r.LowStockBoxes
	}
	if r.LowStockItems != nil {
		items = *r.LowStockItems
	}
	return boxes*r.PiecesPerBox + items, true
}

// Status evaluates the replenishment state. A row without a threshold is
// never LOW, only possibly OUT.
func (r Record) Status() Status {
	total := r.TotalPieces()
	if total == 0 {
		return StatusOut
	}
	if threshold, ok := r.Threshold(); ok && total <= threshold {
		return StatusLow
	}
	return StatusOK
}

// Delta is the signed piece change a transaction line requests against one
// stock row. It is a value object, never persisted.
type Delta struct {
	ProductID    uuid.UUID
	WarehouseID  uuid.UUID
	Pieces       int64
	PiecesPerBox int64
	// CreateIfMissing lets a stock-in create the row on first receipt.
	CreateIfMissing bool
}

// CreateInput describes a new stock row.
type CreateInput struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	WarehouseID   uuid.UUID `json:"warehouse_id" validate:"required"`
	PiecesPerBox  int64     `json:"pieces_per_box" validate:"required,gte=1"`
	Boxes         int64     `json:"boxes" validate:"gte=0"`
	LooseItems    int64     `json:"loose_items" validate:"gte=0"`
	LowStockBoxes *int64    `json:"low_stock_boxes,omitempty" validate:"omitempty,gte=0"`
	LowStockItems *int64    `json:"low_stock_items,omitempty" validate:"omitempty,gte=0"`
}

// SetLevelsInput is the administrative partial update: absolute quantities
// and thresholds, not a delta.
type SetLevelsInput struct {
	Boxes         *int64 `json:"boxes,omitempty" validate:"omitempty,gte=0"`
	LooseItems    *int64 `json:"loose_items,omitempty" validate:"omitempty,gte=0"`
	LowStockBoxes *int64 `json:"low_stock_boxes,omitempty" validate:"omitempty,gte=0"`
	LowStockItems *int64 `json:"low_stock_items,omitempty" validate:"omitempty,gte=0"`
}

// Filter narrows stock listings.
type Filter struct {
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
}

// View is the read contract handed to the API layer.
type View struct {
	Record
	TotalPieces int64  `json:"total_pieces"`
	State       Status `json:"status"`
}

// NewView derives the response shape from a record.
func NewView(r Record) View {
	return View{Record: r, TotalPieces: r.TotalPieces(), State: r.Status()}
}
