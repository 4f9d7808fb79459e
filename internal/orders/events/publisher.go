package events

import (
	"context"
	"smartrentals/pkg/kafka"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/model"
	"time"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"

	SchemaVersion = "1"
	Source        = "rentals"
)

// Publisher announces order lifecycle changes. Publishing happens after the
// change is committed and never fails the operation that caused it.
type Publisher interface {
	OrderCreated(ctx context.Context, order *model.Order)
	StatusChanged(ctx context.Context, order *model.Order, change model.StatusChange)
}

type OrderEvent struct {
	Type    string              `json:"type"`
	OrderID string              `json:"order_id"`
	Status  model.OrderStatus   `json:"status"`
	Change  *model.StatusChange `json:"change,omitempty"`
	Order   *model.Order        `json:"order,omitempty"`
	At      time.Time           `json:"at"`
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer messagePublisher
	log      *logger.Logger
}

// NewKafkaPublisher publishes order events keyed by order id, so the events
// of one order stay in order on one partition.
func NewKafkaPublisher(producer messagePublisher, log *logger.Logger) Publisher {
	return &kafkaPublisher{producer: producer, log: log.Component("order-events")}
}

func (p *kafkaPublisher) OrderCreated(ctx context.Context, order *model.Order) {
	p.publish(ctx, OrderEvent{
		Type:    EventOrderCreated,
		OrderID: order.ID,
		Status:  order.Status,
		Order:   order,
		At:      order.CreatedAt,
	})
}

func (p *kafkaPublisher) StatusChanged(ctx context.Context, order *model.Order, change model.StatusChange) {
	p.publish(ctx, OrderEvent{
		Type:    EventOrderStatusChanged,
		OrderID: order.ID,
		Status:  change.To,
		Change:  &change,
		At:      change.At,
	})
}

func (p *kafkaPublisher) publish(ctx context.Context, event OrderEvent) {
	msg, err := kafka.NewMessage().
		WithKey(event.OrderID).
		WithValue(event).
		WithEventType(event.Type).
		WithCorrelationID(logger.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		p.log.WithContext(ctx).Error("Failed to build order event", "order_id", event.OrderID, "type", event.Type, "error", err)
		return
	}

	if err := p.producer.Publish(context.WithoutCancel(ctx), msg); err != nil {
		p.log.WithContext(ctx).Error("Failed to publish order event", "order_id", event.OrderID, "type", event.Type, "error", err)
		return
	}
	p.log.WithContext(ctx).Debug("Order event published", "order_id", event.OrderID, "type", event.Type)
}

type noopPublisher struct{}

// NewNoopPublisher is used when no brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) OrderCreated(context.Context, *model.Order) {}

func (noopPublisher) StatusChanged(context.Context, *model.Order, model.StatusChange) {}
