package dealers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMode is the instrument a dealer was paid with.
type PaymentMode string

const (
	PaymentCash PaymentMode = "CASH"
	PaymentUPI  PaymentMode = "UPI"
	PaymentCard PaymentMode = "CARD"
)

// Payment is money paid out to a dealer against purchases. Independent of
// stock; it only moves the ledger balance.
type Payment struct {
	ID          uuid.UUID       `json:"id"`
	DealerID    uuid.UUID       `json:"dealer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Mode        PaymentMode     `json:"mode"`
	PaymentDate time.Time       `json:"payment_date"`
	Note        string          `json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentInput is the record-payment payload.
type PaymentInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Mode        PaymentMode     `json:"mode" validate:"required,oneof=CASH UPI CARD"`
	PaymentDate time.Time       `json:"payment_date"`
	Note        string          `json:"note"`
}

// EntryKind tags a ledger entry as owed or paid.
type EntryKind string

const (
	// EntryPurchase is a debit, increasing what is owed to the dealer.
	EntryPurchase EntryKind = "PURCHASE"
	// EntryPayment is a credit, decreasing what is owed.
	EntryPayment EntryKind = "PAYMENT"
)

// LedgerEntry is one row of the merged purchase/payment timeline.
type LedgerEntry struct {
	Kind      EntryKind       `json:"kind"`
	RefID     uuid.UUID       `json:"ref_id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	Reference string          `json:"reference,omitempty"`
}

// LedgerSummary totals the period. A positive balance is owed to the dealer.
type LedgerSummary struct {
	TotalPurchase decimal.Decimal `json:"total_purchase"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Balance       decimal.Decimal `json:"balance"`
}

// Ledger is the full response for one dealer and period.
type Ledger struct {
	DealerID    uuid.UUID     `json:"dealer_id"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	Entries     []LedgerEntry `json:"entries"`
	Summary     LedgerSummary `json:"summary"`
}
