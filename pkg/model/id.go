package model

import "github.com/google/uuid"

// NewID returns a time-ordered UUIDv7, so ascending ids follow creation order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
