package model

import "time"

type InventoryUnit struct {
	ID        string    `json:"id" bson:"_id" validate:"required,uuid"`
	ProductID string    `json:"product_id" bson:"product_id" validate:"required,uuid"`
	Label     string    `json:"label" bson:"label" validate:"required,min=1,max=200"`
	Location  string    `json:"location,omitempty" bson:"location,omitempty" validate:"max=200"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type InventoryUnitCreate struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Label     string `json:"label" validate:"required,min=1,max=200"`
	Location  string `json:"location,omitempty" validate:"max=200"`
	Active    *bool  `json:"active,omitempty"`
}

type InventoryUnitUpdate struct {
	Label    *string `json:"label,omitempty" validate:"omitempty,min=1,max=200"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=200"`
	Active   *bool   `json:"active,omitempty"`
}

// InventoryCount summarizes the units held for one product.
type InventoryCount struct {
	ProductID string `json:"product_id" bson:"_id"`
	Total     int64  `json:"total" bson:"total"`
	Active    int64  `json:"active" bson:"active"`
}

type RemovalOutcome string

const (
	RemovalDeleted     RemovalOutcome = "deleted"
	RemovalDeactivated RemovalOutcome = "deactivated"
)

// Removal reports what a delete request did. Stock that was ever reserved is
// deactivated rather than deleted, so past orders and reports still resolve.
type Removal struct {
	ID      string         `json:"id"`
	Outcome RemovalOutcome `json:"outcome"`
	Units   int            `json:"units"`
}
