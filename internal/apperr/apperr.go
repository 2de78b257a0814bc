// Package apperr holds the error kinds shared by every service. Packages
// declare their own sentinels on top of these so the HTTP layer can map a
// failure to a status without knowing which entity produced it.
package apperr

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflictOrderNumber = errors.New("order number already taken")
	ErrInsufficientStock   = errors.New("insufficient stock")
)

type Kind string

const (
	KindUnknown             Kind = "unknown"
	KindNotFound            Kind = "not_found"
	KindInvalidInput        Kind = "invalid_input"
	KindConflictOrderNumber Kind = "conflict_order_number"
	KindInsufficientStock   Kind = "insufficient_stock"
)

// KindOf classifies err by the first kind sentinel found in its chain.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConflictOrderNumber):
		return KindConflictOrderNumber
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	default:
		return KindUnknown
	}
}

// Invalid wraps msg as an ErrInvalidInput.
func Invalid(msg string) error {
	return &invalidError{msg: msg}
}

type invalidError struct {
	msg string
}

func (e *invalidError) Error() string { return e.msg }

func (e *invalidError) Unwrap() error { return ErrInvalidInput }
