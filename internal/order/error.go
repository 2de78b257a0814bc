package order

import (
	"errors"
	"fmt"

	"github.com/warimas/backoffice/internal/apperr"
)

var (
	ErrOrderNotFound  = fmt.Errorf("order %w", apperr.ErrNotFound)
	ErrStatusNotFound = fmt.Errorf("%w: unknown order status", apperr.ErrInvalidInput)
	ErrNoItems        = fmt.Errorf("%w: order must contain at least one item", apperr.ErrInvalidInput)
	ErrDuplicateItem  = fmt.Errorf("%w: product listed more than once", apperr.ErrInvalidInput)
	ErrNumberConflict = fmt.Errorf("order number: %w", apperr.ErrConflictOrderNumber)
)

// StockError reports a line asking for more units than the product has.
type StockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool {
	return target == apperr.ErrInsufficientStock
}

// AsStockError extracts a *StockError from err's chain.
func AsStockError(err error) (*StockError, bool) {
	var se *StockError
	ok := errors.As(err, &se)
	return se, ok
}
