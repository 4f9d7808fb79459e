package repository

import (
	"context"
	"errors"
	"fmt"
	orderserrors "smartrentals/internal/orders/errors"
	"smartrentals/pkg/config"
	mongotx "smartrentals/pkg/db/mongo"
	"smartrentals/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	OrdersCollection   = "Orders"
	PaymentsCollection = "Payments"
)

type mongoOrderRepository struct {
	cfg      *config.Config
	orders   *mongo.Collection
	payments *mongo.Collection
}

func NewMongoOrderRepository(cfg *config.Config) OrderRepository {
	database := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoOrderRepository{
		cfg:      cfg,
		orders:   database.Collection(OrdersCollection),
		payments: database.Collection(PaymentsCollection),
	}
}

func (r *mongoOrderRepository) Create(ctx context.Context, o *model.Order) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.orders.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *mongoOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var o model.Order
	if err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, orderserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &o, nil
}

func (r *mongoOrderRepository) FindAll(ctx context.Context, filter model.OrderFilter) ([]*model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit)).SetSkip(filter.Offset)
	}
	return r.find(ctx, orderFilter(filter), opts)
}

func (r *mongoOrderRepository) Count(ctx context.Context, filter model.OrderFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	n, err := r.orders.CountDocuments(ctx, orderFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (r *mongoOrderRepository) UpdateStatus(ctx context.Context, id string, change model.StatusChange) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": id, "status": change.From},
		bson.M{
			"$set":  bson.M{"status": change.To, "updated_at": change.At},
			"$push": bson.M{"status_history": change},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return orderserrors.ErrStatusChanged
	}
	return nil
}

func (r *mongoOrderRepository) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]*model.Order, error) {
	filter := bson.M{"status": model.OrderPending, "created_at": bson.M{"$lt": cutoff}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *mongoOrderRepository) SavePayment(ctx context.Context, p *model.Payment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.payments.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return orderserrors.ErrPaymentExists
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (r *mongoOrderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Order, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []*model.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func orderFilter(filter model.OrderFilter) bson.M {
	m := bson.M{}
	if filter.Status != "" {
		m["status"] = filter.Status
	}
	if filter.CustomerRef != "" {
		m["customer_ref"] = filter.CustomerRef
	}
	return m
}
