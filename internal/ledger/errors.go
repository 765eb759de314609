package ledger

import (
	"errors"
	"fmt"
)

// ErrItemNotFound is returned when no stock record exists for a SKU.
var ErrItemNotFound = errors.New("sku not found")

// ErrInvalidInput is wrapped by all input-rejection errors. Validation happens
// before any lock is taken, so a rejected call has no side effects.
var ErrInvalidInput = errors.New("invalid input")

// InsufficientStockError is returned when a deduction would drive a quantity
// below zero. Available and Requested are echoed to the caller so it can
// decide whether to retry with a smaller quantity.
type InsufficientStockError struct {
	SKU       string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.SKU, e.Available, e.Requested)
}
