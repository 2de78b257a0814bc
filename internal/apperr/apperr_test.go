package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"not found wrapped", fmt.Errorf("product 4: %w", ErrNotFound), KindNotFound},
		{"invalid helper", Invalid("quantity must be at least 1"), KindInvalidInput},
		{"conflict", fmt.Errorf("insert: %w", ErrConflictOrderNumber), KindConflictOrderNumber},
		{"stock", fmt.Errorf("line: %w", ErrInsufficientStock), KindInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestInvalid(t *testing.T) {
	err := Invalid("customer id is required for update action")

	assert.EqualError(t, err, "customer id is required for update action")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
