package errors

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")

	ErrUnitNotFound = errors.New("inventory unit not found")

	ErrInvalidID = errors.New("invalid ID format")

	ErrDuplicateSKU = errors.New("product SKU already exists")
)
