package customer

import (
	"fmt"

	"github.com/warimas/backoffice/internal/apperr"
)

var ErrCustomerNotFound = fmt.Errorf("customer %w", apperr.ErrNotFound)
