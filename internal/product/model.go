package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	TeamID      int64           `json:"team_id"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	Name        string          `json:"name"`
	SKU         *string         `json:"sku,omitempty"`
	Description *string         `json:"description,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// Input is the writable part of a product, used for both create and update.
// Quantity is the opening stock and is ignored by Update; stock changes after
// creation go through AdjustStock or order reconciliation.
type Input struct {
	Name        string          `json:"name" validate:"min=2,max=255"`
	SKU         *string         `json:"sku" validate:"omitempty,min=2,max=255"`
	Description *string         `json:"description"`
	Cost        decimal.Decimal `json:"cost" validate:"gte=0"`
	Price       decimal.Decimal `json:"price" validate:"gte=0.01"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	CategoryID  *int64          `json:"category_id" validate:"omitempty,gt=0"`
}

// StockAdjustment is a manual restock or write-off, applied as a delta.
type StockAdjustment struct {
	Delta int `json:"delta" validate:"ne=0"`
}

type ListFilter struct {
	Search     string
	CategoryID *int64
	Page       int32
	Limit      int32
}

type ListResult struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Page  int32     `json:"page"`
	Limit int32     `json:"limit"`
}
