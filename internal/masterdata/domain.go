package masterdata

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page   int
	Limit  int
	Search string
}

// Product represents a sellable item. PiecesPerBox is the box capacity
// snapshotted onto stock rows at first stock-in.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	TaxPercent    decimal.Decimal `json:"tax_percent"`
	PiecesPerBox  int64           `json:"pieces_per_box"`
	HSNCode       string          `json:"hsn_code"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductForm is the create/update payload.
type ProductForm struct {
	SKU           string          `json:"sku" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Category      string          `json:"category"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	TaxPercent    decimal.Decimal `json:"tax_percent"`
	PiecesPerBox  int64           `json:"pieces_per_box" validate:"required,gte=1"`
	HSNCode       string          `json:"hsn_code"`
	Description   string          `json:"description"`
}

// Warehouse represents a storage location.
type Warehouse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarehouseForm is the create/update payload.
type WarehouseForm struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

// Dealer represents a supplier purchases are made from.
type Dealer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	GSTIN     string    `json:"gstin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DealerForm is the create/update payload.
type DealerForm struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	GSTIN   string `json:"gstin"`
}

// Customer represents a billing counterparty. CustomPrices holds per-product
// price overrides keyed by product id, written back when a bill line asks for
// the override to stick.
type Customer struct {
	ID           uuid.UUID                     `json:"id"`
	Name         string                        `json:"name"`
	ShopName     string                        `json:"shop_name"`
	Phone        string                        `json:"phone"`
	Address      string                        `json:"address"`
	GSTNumber    string                        `json:"gst_number"`
	CustomPrices map[uuid.UUID]decimal.Decimal `json:"custom_prices,omitempty"`
	CreatedAt    time.Time                     `json:"created_at"`
	UpdatedAt    time.Time                     `json:"updated_at"`
}

// CustomerForm is the create/update payload.
type CustomerForm struct {
	Name      string `json:"name" validate:"required"`
	ShopName  string `json:"shop_name"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address"`
	GSTNumber string `json:"gst_number"`
}
