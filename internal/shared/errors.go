package shared

import "errors"

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness violation, e.g. a second stock
	// row for the same product and warehouse.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientStock indicates a delta would drive pieces negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidUnit indicates piecesPerBox < 1 or negative quantities.
	ErrInvalidUnit = errors.New("invalid unit")
	// ErrOverpaid indicates a payment sum exceeding the bill grand total.
	ErrOverpaid = errors.New("overpaid")
	// ErrConcurrentModification indicates a stock row changed underneath a
	// read-modify-write and internal retries were exhausted.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrValidation indicates a malformed request rejected before any mutation.
	ErrValidation = errors.New("validation failed")
)
