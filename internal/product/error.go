package product

import (
	"fmt"

	"github.com/warimas/backoffice/internal/apperr"
)

var (
	ErrProductNotFound  = fmt.Errorf("product %w", apperr.ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("%w: category does not belong to this team", apperr.ErrInvalidInput)
	ErrDuplicateSKU     = fmt.Errorf("%w: sku already used by another product", apperr.ErrInvalidInput)
	ErrNegativeAmount   = fmt.Errorf("%w: stock adjustment must not be negative", apperr.ErrInvalidInput)
)
