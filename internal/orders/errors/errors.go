package errors

import "errors"

var (
	ErrNotFound = errors.New("order not found")

	// ErrStatusChanged means the order left the expected status between
	// being read and being updated.
	ErrStatusChanged = errors.New("order status changed concurrently")

	ErrPaymentExists = errors.New("order already has a payment")
)
