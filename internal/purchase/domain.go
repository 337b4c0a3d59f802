package purchase

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is one raw purchase line. PurchasePrice is tax-exclusive; tax is
// added on top after the percent discount, unlike the sell side.
type LineInput struct {
	ProductID       uuid.UUID       `json:"product_id" validate:"required"`
	WarehouseID     uuid.UUID       `json:"warehouse_id" validate:"required"`
	Boxes           int64           `json:"boxes" validate:"gte=0"`
	LooseItems      int64           `json:"loose_items" validate:"gte=0"`
	PiecesPerBox    int64           `json:"pieces_per_box" validate:"required,gte=1"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
}

// Line is a stored purchase line with its computed amounts.
type Line struct {
	LineInput
	TotalQty      int64           `json:"total_qty"`
	GrossAmount   decimal.Decimal `json:"gross_amount"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// Order aggregates purchase lines bought from one dealer.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	DealerID      uuid.UUID       `json:"dealer_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	Lines         []Line          `json:"lines"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderInput is the create/edit payload.
type OrderInput struct {
	DealerID      uuid.UUID   `json:"dealer_id" validate:"required"`
	InvoiceNumber string      `json:"invoice_number"`
	PurchaseDate  time.Time   `json:"purchase_date"`
	Lines         []LineInput `json:"lines" validate:"required,min=1,dive"`

	// IdempotencyKey comes from the Idempotency-Key header, not the body.
	IdempotencyKey string `json:"-"`
}
