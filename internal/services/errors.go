package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them onto HTTP status codes with errors.Is.
var (
	ErrValidation                = errors.New("validation error")
	ErrNotFound                  = errors.New("not found")
	ErrInsufficientStock         = errors.New("insufficient stock")
	ErrInvalidSelection          = errors.New("invalid selection")
	ErrConflict                  = errors.New("conflict")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrAlreadyCancelled          = errors.New("order already cancelled")
	ErrNotCancellable            = errors.New("order not cancellable")
	ErrInvalidStatus             = errors.New("invalid status")
	ErrUnauthorized              = errors.New("unauthorized")
)

// Error is a client-facing failure: Message is safe to show, Kind is one of the
// sentinels above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// StockError reports a stock cell that cannot cover a request. InCart is set when the
// request merges into an existing cart line.
type StockError struct {
	Product   string
	Available int
	Requested int
	InCart    int
	Message   string
}

func (e *StockError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d", e.Product, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
