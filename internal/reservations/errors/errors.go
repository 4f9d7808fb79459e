package errors

import "errors"

var (
	// ErrConflict means the unit already holds a live reservation that
	// intersects the requested window, or a concurrent writer won the unit.
	ErrConflict = errors.New("reservation overlaps an existing reservation")

	ErrUnitNotFound = errors.New("inventory unit not found")

	ErrUnitInactive = errors.New("inventory unit is not active")

	ErrInvalidRange = errors.New("reservation start must be before its end")
)
