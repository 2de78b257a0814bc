package order

import "github.com/shopspring/decimal"

// Event is the payload published for order.created/updated/deleted.
type Event struct {
	OrderID    int64           `json:"order_id"`
	TeamID     int64           `json:"team_id"`
	Num        string          `json:"num"`
	StatusID   int64           `json:"status_id"`
	CustomerID *int64          `json:"customer_id,omitempty"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []EventItem     `json:"items"`
}

type EventItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func toEvent(o *Order) Event {
	items := make([]EventItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, EventItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	return Event{
		OrderID:    o.ID,
		TeamID:     o.TeamID,
		Num:        o.Num,
		StatusID:   o.StatusID,
		CustomerID: o.CustomerID,
		TotalCost:  o.TotalCost,
		TotalPrice: o.TotalPrice,
		Items:      items,
	}
}
