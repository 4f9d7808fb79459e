package model

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
	OrderReturned  OrderStatus = "returned"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderReturned, OrderCancelled},
}

// CanTransition reports whether an order may move from s to next.
// Cancelled and returned are terminal.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderCancelled, OrderReturned:
		return true
	}
	return false
}

type Order struct {
	ID            string         `json:"id" bson:"_id"`
	CustomerRef   string         `json:"customer_ref" bson:"customer_ref"`
	ContactPhone  string         `json:"contact_phone,omitempty" bson:"contact_phone,omitempty"`
	Status        OrderStatus    `json:"status" bson:"status"`
	Currency      string         `json:"currency" bson:"currency"`
	Subtotal      Money          `json:"subtotal" bson:"subtotal"`
	Total         Money          `json:"total" bson:"total"`
	Lines         []OrderLine    `json:"reservations" bson:"lines"`
	StatusHistory []StatusChange `json:"status_history" bson:"status_history"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}

// OrderLine is one booked window of an order, in booking order, with the
// quote it was priced at.
type OrderLine struct {
	ReservationID string    `json:"id" bson:"reservation_id"`
	ProductID     string    `json:"product_id" bson:"product_id"`
	UnitID        string    `json:"inventory_item_id" bson:"inventory_item_id"`
	Start         time.Time `json:"start_date" bson:"start_date"`
	End           time.Time `json:"end_date" bson:"end_date"`
	Quote         Quote     `json:"quote" bson:"quote"`
}

type StatusChange struct {
	From OrderStatus `json:"from,omitempty" bson:"from,omitempty"`
	To   OrderStatus `json:"to" bson:"to"`
	At   time.Time   `json:"at" bson:"at"`
	Note string      `json:"note,omitempty" bson:"note,omitempty"`
}

// ReservationRequest is one window of an order request. A set
// InventoryItemID pins the unit; otherwise a free unit of the order's
// product is chosen.
type ReservationRequest struct {
	InventoryItemID string    `json:"inventory_item_id,omitempty" validate:"omitempty,max=64"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
}

type OrderCreate struct {
	CustomerRef  string               `json:"customer_ref" validate:"required,max=200"`
	ContactPhone string               `json:"contact_phone,omitempty" validate:"omitempty,e164"`
	ProductID    string               `json:"product_id,omitempty" validate:"omitempty,max=64"`
	Reservations []ReservationRequest `json:"reservations" validate:"required,min=1,max=50,dive"`
}

// PaymentConfirmation is the payload of the signed payment webhook.
type PaymentConfirmation struct {
	Method    string `json:"method" validate:"required,max=50"`
	Amount    Money  `json:"amount" validate:"positive_money"`
	Reference string `json:"reference,omitempty" validate:"max=200"`
}

type StatusNote struct {
	Note string `json:"note,omitempty" validate:"max=500"`
}

type OrderFilter struct {
	Status      OrderStatus
	CustomerRef string
	Limit       int
	Offset      int64
}

// Payment records the settlement that confirmed an order.
type Payment struct {
	ID        string    `json:"id" bson:"_id"`
	OrderID   string    `json:"order_id" bson:"order_id"`
	Method    string    `json:"method" bson:"method" validate:"required,max=50"`
	Amount    Money     `json:"amount" bson:"amount"`
	Reference string    `json:"reference,omitempty" bson:"reference,omitempty" validate:"max=200"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
