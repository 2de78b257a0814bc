package order

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warimas/backoffice/internal/apperr"
	"github.com/warimas/backoffice/internal/product"
)

// StockLedger is the product side of reconciliation: a locked read of the
// authoritative cost/price and atomic quantity moves.
type StockLedger interface {
	FindForUpdate(ctx context.Context, teamID, productID int64) (*product.Product, error)
	DecrementQuantity(ctx context.Context, teamID, productID int64, amount int) error
	IncrementQuantity(ctx context.Context, teamID, productID int64, amount int) error
}

// LineStore is the order side of reconciliation.
type LineStore interface {
	Lines(ctx context.Context, orderID int64) ([]Line, error)
	InsertLine(ctx context.Context, l *Line) error
	UpdateLine(ctx context.Context, l *Line) error
	DeleteLine(ctx context.Context, lineID int64) error
	SetTotals(ctx context.Context, teamID, id int64, cost, price decimal.Decimal) error
}

type Result struct {
	TotalCost  decimal.Decimal
	TotalPrice decimal.Decimal
	// Lines is the order's line set after reconciliation, by product id.
	Lines []Line

	Added     int
	Updated   int
	Removed   int
	Unchanged int
}

// Reconcile converges the persisted lines of an order onto targets, moving
// stock by the difference only, and writes the new totals on the header.
//
// targets must hold each product at most once; quantities must be positive.
// Availability is not checked here: a decrement past zero is applied as is.
// A soft-deleted product may keep an existing line but cannot be added.
func Reconcile(
	ctx context.Context,
	ledger StockLedger,
	store LineStore,
	teamID, orderID int64,
	targets []LineInput,
) (*Result, error) {
	wanted := make(map[int64]int, len(targets))
	for _, t := range targets {
		if t.ProductID <= 0 {
			return nil, apperr.Invalid("product_id must be positive")
		}
		if t.Quantity < 1 {
			return nil, apperr.Invalid("quantity must be at least 1")
		}
		if _, dup := wanted[t.ProductID]; dup {
			return nil, ErrDuplicateItem
		}
		wanted[t.ProductID] = t.Quantity
	}

	current, err := store.Lines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	existing := make(map[int64]Line, len(current))
	for _, l := range current {
		existing[l.ProductID] = l
	}

	res := &Result{
		TotalCost:  decimal.Zero,
		TotalPrice: decimal.Zero,
		Lines:      make([]Line, 0, len(wanted)),
	}

	for _, productID := range sortedKeys(wanted) {
		qty := wanted[productID]

		p, err := ledger.FindForUpdate(ctx, teamID, productID)
		if err != nil {
			return nil, err
		}

		line, ok := existing[productID]
		if ok {
			diff := qty - line.Quantity
			switch {
			case diff > 0:
				err = ledger.DecrementQuantity(ctx, teamID, productID, diff)
			case diff < 0:
				err = ledger.IncrementQuantity(ctx, teamID, productID, -diff)
			}
			if err != nil {
				return nil, err
			}

			if diff != 0 || !line.UnitCost.Equal(p.Cost) || !line.UnitPrice.Equal(p.Price) {
				line.Quantity = qty
				line.UnitCost = p.Cost
				line.UnitPrice = p.Price
				if err := store.UpdateLine(ctx, &line); err != nil {
					return nil, err
				}
				res.Updated++
			} else {
				res.Unchanged++
			}
		} else {
			// a deleted product stays on orders that hold it but is never added
			if p.DeletedAt != nil {
				return nil, fmt.Errorf("product %d: %w", productID, product.ErrProductNotFound)
			}
			if err := ledger.DecrementQuantity(ctx, teamID, productID, qty); err != nil {
				return nil, err
			}
			line = Line{
				OrderID:   orderID,
				ProductID: productID,
				Quantity:  qty,
				UnitCost:  p.Cost,
				UnitPrice: p.Price,
			}
			if err := store.InsertLine(ctx, &line); err != nil {
				return nil, err
			}
			res.Added++
		}

		n := decimal.NewFromInt(int64(line.Quantity))
		res.TotalCost = res.TotalCost.Add(line.UnitCost.Mul(n))
		res.TotalPrice = res.TotalPrice.Add(line.UnitPrice.Mul(n))
		res.Lines = append(res.Lines, line)
	}

	var gone []int64
	for productID := range existing {
		if _, keep := wanted[productID]; !keep {
			gone = append(gone, productID)
		}
	}
	sort.Slice(gone, func(i, j int) bool { return gone[i] < gone[j] })

	for _, productID := range gone {
		line := existing[productID]
		if err := ledger.IncrementQuantity(ctx, teamID, productID, line.Quantity); err != nil {
			return nil, err
		}
		if err := store.DeleteLine(ctx, line.ID); err != nil {
			return nil, err
		}
		res.Removed++
	}

	if err := store.SetTotals(ctx, teamID, orderID, res.TotalCost, res.TotalPrice); err != nil {
		return nil, err
	}
	return res, nil
}

func sortedKeys(m map[int64]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// coalesce merges repeated products by summing their quantities, keeping
// the order of first appearance.
func coalesce(items []LineInput) []LineInput {
	idx := make(map[int64]int, len(items))
	out := make([]LineInput, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}
