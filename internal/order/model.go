package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status names seeded in order_statuses.
const (
	StatusDraft    = "draft"
	StatusFinished = "finished"
)

type Status struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

type Order struct {
	ID         int64           `json:"id"`
	TeamID     int64           `json:"team_id"`
	CustomerID *int64          `json:"customer_id,omitempty"`
	StatusID   int64           `json:"status_id"`
	Num        string          `json:"num"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	TotalPrice decimal.Decimal `json:"total_price"`

	// Contact details as they were typed on the order form.
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	Notes     *string `json:"notes,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	Lines []Line `json:"lines"`
}

// Line is one product on an order. Unit values are captured when the line
// is reconciled and never looked up live afterwards.
type Line struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CustomerAction tells the resolver what to do with a supplied customer id.
type CustomerAction string

const (
	CustomerKeep   CustomerAction = "keep"
	CustomerCreate CustomerAction = "create"
	CustomerUpdate CustomerAction = "update"
)

// Input is the order form, shared by create and update.
type Input struct {
	CustomerID     *int64         `json:"customer_id" validate:"omitempty,gt=0"`
	CustomerAction CustomerAction `json:"customer_action" validate:"omitempty,oneof=keep create update"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Phone          *string        `json:"phone"`
	Address        *string        `json:"address"`

	Num      *string `json:"num" validate:"omitempty,max=32"`
	StatusID *int64  `json:"status_id" validate:"omitempty,gt=0"`
	Finished bool    `json:"finished"`
	Notes    *string `json:"notes" validate:"omitempty,max=1000"`

	Items []LineInput `json:"items" validate:"omitempty,dive"`
}

type LineInput struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"min=1"`
}

type ListFilter struct {
	Search   string
	StatusID *int64
	From     *time.Time
	To       *time.Time
	Page     int32
	Limit    int32
}

type ListResult struct {
	Items []Order `json:"items"`
	Total int     `json:"total"`
	Page  int32   `json:"page"`
	Limit int32   `json:"limit"`
}
