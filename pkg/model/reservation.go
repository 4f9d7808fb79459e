package model

import "time"

// Reservation books one unit for the half-open interval [Start, End).
// A voided reservation is kept for reporting but no longer blocks its unit.
type Reservation struct {
	ID        string    `json:"id" bson:"_id"`
	OrderID   string    `json:"order_id" bson:"order_id"`
	UnitID    string    `json:"inventory_item_id" bson:"inventory_item_id"`
	ProductID string    `json:"product_id" bson:"product_id"`
	Start     time.Time `json:"start_date" bson:"start_date"`
	End       time.Time `json:"end_date" bson:"end_date"`
	Voided    bool      `json:"voided" bson:"voided"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Overlaps reports whether [start, end) intersects the reservation.
// Touching endpoints do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && start.Before(r.End)
}

// UnitLock serializes ledger writes for one unit in stores without row locks.
type UnitLock struct {
	UnitID    string    `bson:"_id"`
	Version   int64     `bson:"version"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// UnitUsage counts the reservations held against one unit. Live counts the
// ones not voided that end after the time asked about; Total counts every
// reservation ever made, voided or not.
type UnitUsage struct {
	UnitID string `json:"inventory_item_id"`
	Live   int64  `json:"live"`
	Total  int64  `json:"total"`
}
