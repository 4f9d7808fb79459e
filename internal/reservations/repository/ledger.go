package repository

import (
	"context"
	"smartrentals/pkg/model"
	"time"
)

// Ledger is the authoritative record of which unit is taken when. Windows
// are half-open: a reservation ending at 13:00 does not block one starting
// at 13:00. Voided reservations are kept but never block a unit.
type Ledger interface {
	// Overlapping returns the live reservations of unitID that intersect
	// [start, end), ordered by start.
	Overlapping(ctx context.Context, unitID string, start, end time.Time) ([]*model.Reservation, error)

	// Insert atomically re-checks the unit for overlaps and stores r. It
	// fails with ErrConflict when the window is taken, and with
	// ErrUnitInactive or ErrUnitNotFound when the unit cannot be booked.
	// Called inside a transaction it joins that transaction.
	Insert(ctx context.Context, r *model.Reservation) error

	FindByOrder(ctx context.Context, orderID string) ([]*model.Reservation, error)

	// VoidByOrder releases every live reservation of the order.
	VoidByOrder(ctx context.Context, orderID string) (int64, error)

	// Usage locks the unit the way Insert does and counts its reservations
	// relative to now. Inside a transaction the lock is held until commit,
	// so no booking can land between the count and a following write.
	Usage(ctx context.Context, unitID string, now time.Time) (*model.UnitUsage, error)

	// FindInWindow lists live reservations of all units that intersect
	// [start, end), ordered by start.
	FindInWindow(ctx context.Context, start, end time.Time) ([]*model.Reservation, error)
}
