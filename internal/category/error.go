package category

import (
	"fmt"

	"github.com/warimas/backoffice/internal/apperr"
)

var (
	ErrCategoryNotFound = fmt.Errorf("category %w", apperr.ErrNotFound)
	ErrDuplicateName    = fmt.Errorf("%w: category name already exists", apperr.ErrInvalidInput)
)
