package repositories

import "errors"

// Errors returned by every repository implementation. Callers match them with errors.Is.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockCellNotFound = errors.New("stock cell not found")
)

// ErrStatusMismatch is returned by OrderRepository.Transition when the order is no
// longer in one of the expected source states.
var ErrStatusMismatch = errors.New("order status changed")
