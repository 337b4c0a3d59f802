package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects how DiscountValue is applied to the unit price.
type DiscountType string

const (
	DiscountNone    DiscountType = "NONE"
	DiscountPercent DiscountType = "PERCENT"
	DiscountCash    DiscountType = "CASH"
)

// PaymentMode is how a bill was settled.
type PaymentMode string

const (
	PaymentCash  PaymentMode = "CASH"
	PaymentUPI   PaymentMode = "UPI"
	PaymentCard  PaymentMode = "CARD"
	PaymentSplit PaymentMode = "SPLIT"
)

// LineInput is one raw bill line as the caller submits it. SellingPrice is
// tax-inclusive; tax is recovered by division in the calculator.
type LineInput struct {
	ProductID     uuid.UUID       `json:"product_id" validate:"required"`
	WarehouseID   uuid.UUID       `json:"warehouse_id" validate:"required"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	TaxPercent    decimal.Decimal `json:"tax_percent"`
	QuantityBoxes int64           `json:"quantity_boxes" validate:"gte=0"`
	QuantityLoose int64           `json:"quantity_loose" validate:"gte=0"`
	PiecesPerBox  int64           `json:"pieces_per_box" validate:"required,gte=1"`
	DiscountType  DiscountType    `json:"discount_type" validate:"omitempty,oneof=NONE PERCENT CASH"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	// OverridePriceForCustomer persists SellingPrice as the customer's
	// standing price for this product.
	OverridePriceForCustomer bool `json:"override_price_for_customer"`
}

// Line is a stored bill line with its computed amounts.
type Line struct {
	LineInput
	TotalPieces     int64           `json:"total_pieces"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	AmountBeforeTax decimal.Decimal `json:"amount_before_tax"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// Payment records how much was collected per instrument.
type Payment struct {
	Mode       PaymentMode     `json:"mode" validate:"required,oneof=CASH UPI CARD SPLIT"`
	CashAmount decimal.Decimal `json:"cash_amount"`
	UPIAmount  decimal.Decimal `json:"upi_amount"`
	CardAmount decimal.Decimal `json:"card_amount"`
}

// Collected sums the payment instruments.
func (p Payment) Collected() decimal.Decimal {
	return p.CashAmount.Add(p.UPIAmount).Add(p.CardAmount)
}

// Bill aggregates lines, totals and the payment for one sale. Edits replace
// the lines wholesale and recompute every total.
type Bill struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      *uuid.UUID      `json:"customer_id,omitempty"`
	BillDate        time.Time       `json:"bill_date"`
	Lines           []Line          `json:"lines"`
	Payment         Payment         `json:"payment"`
	TotalItems      int64           `json:"total_items"`
	TotalBeforeTax  decimal.Decimal `json:"total_before_tax"`
	TotalTax        decimal.Decimal `json:"total_tax"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
	BalanceAmount   decimal.Decimal `json:"balance_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BillInput is the create/edit payload.
type BillInput struct {
	CustomerID *uuid.UUID  `json:"customer_id,omitempty"`
	BillDate   time.Time   `json:"bill_date"`
	Lines      []LineInput `json:"lines" validate:"required,min=1,dive"`
	Payment    Payment     `json:"payment"`

	// IdempotencyKey comes from the Idempotency-Key header, not the body.
	IdempotencyKey string `json:"-"`
}
