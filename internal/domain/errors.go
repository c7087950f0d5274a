package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError rejects a malformed or missing required field. It aborts
// the operation without touching any ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError names the offending item together with the
// available and requested quantities so the message is actionable at the
// counter.
type InsufficientStockError struct {
	Name      string
	Batch     string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s (batch %s): available %s, requested %s",
		e.Name, e.Batch, e.Available, e.Requested)
}

// ExpiredStockError rejects selling an item whose expiry date is strictly
// before the current calendar day.
type ExpiredStockError struct {
	Name   string
	Batch  string
	Expiry Day
}

func (e *ExpiredStockError) Error() string {
	return fmt.Sprintf("cannot sell expired item %s (batch %s): expired on %s",
		e.Name, e.Batch, e.Expiry)
}

// EmptyBillError rejects committing a bill with no line items.
type EmptyBillError struct{}

func (e *EmptyBillError) Error() string {
	return "bill has no line items"
}

// InvalidRangeError rejects a report range whose bounds are unset or
// inverted.
type InvalidRangeError struct {
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: %s", e.Reason)
}
