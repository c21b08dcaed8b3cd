// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the ledger engine. Typed errors below match these with errors.Is.
var (
	ErrInvalidSaleRequest       = errors.New("invalid sale request")
	ErrDuplicateLineItem        = errors.New("duplicate line item")
	ErrUnknownOrInactiveProduct = errors.New("unknown or inactive product")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrConcurrentModification   = errors.New("concurrent modification")
	ErrPersistenceFailure       = errors.New("persistence failure")

	ErrNotFound              = errors.New("not found")
	ErrInvalidMovement       = errors.New("invalid movement")
	ErrInvalidThreshold      = errors.New("invalid reorder threshold")
	ErrInvalidSaleTransition = errors.New("invalid sale status transition")
	ErrUnknownReference      = errors.New("referenced warehouse, product or client does not exist")
	ErrInvalidAuditFilter    = errors.New("invalid audit filter")
)

// StockError reports a movement that would drive a pair below zero.
type StockError struct {
	WarehouseID int64
	ProductID   int64
	Current     int64
	Delta       int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for warehouse %d product %d: have %d, movement %+d would leave %d",
		e.WarehouseID, e.ProductID, e.Current, e.Delta, e.Current+e.Delta)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ProductError names a product that could not be sold.
type ProductError struct {
	ProductID int64
}

func (e *ProductError) Error() string {
	return fmt.Sprintf("product %d is unknown or inactive", e.ProductID)
}

func (e *ProductError) Is(target error) bool {
	return target == ErrUnknownOrInactiveProduct
}

// LineError points at the sale line that failed request validation.
type LineError struct {
	Index     int
	ProductID int64
	Kind      error
	Reason    string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (product %d): %s", e.Index, e.ProductID, e.Reason)
}

func (e *LineError) Is(target error) bool {
	return target == e.Kind
}

// PersistenceError wraps an infrastructural store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailure
}

// TransitionError reports a rejected sale status change.
type TransitionError struct {
	From SaleStatus
	To   SaleStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("sale cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidSaleTransition
}

// IsBusinessError reports whether err is a caller-visible business rule violation
// that must never be retried.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrInvalidSaleRequest) ||
		errors.Is(err, ErrDuplicateLineItem) ||
		errors.Is(err, ErrUnknownOrInactiveProduct) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidMovement) ||
		errors.Is(err, ErrInvalidThreshold) ||
		errors.Is(err, ErrInvalidSaleTransition) ||
		errors.Is(err, ErrUnknownReference) ||
		errors.Is(err, ErrInvalidAuditFilter) ||
		errors.Is(err, ErrNotFound)
}
