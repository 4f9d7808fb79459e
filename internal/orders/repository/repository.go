package repository

import (
	"context"
	"smartrentals/pkg/model"
	"time"
)

type OrderRepository interface {
	// Create stores the order with its lines and initial status history.
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	// FindAll lists orders newest first. A non-positive limit lists all.
	FindAll(ctx context.Context, filter model.OrderFilter) ([]*model.Order, error)
	Count(ctx context.Context, filter model.OrderFilter) (int64, error)
	// UpdateStatus moves the order from change.From to change.To and appends
	// change to its history. It fails with ErrStatusChanged when the stored
	// status is no longer change.From.
	UpdateStatus(ctx context.Context, id string, change model.StatusChange) error
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]*model.Order, error)
	SavePayment(ctx context.Context, payment *model.Payment) error
}
