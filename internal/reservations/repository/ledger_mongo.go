package repository

import (
	"context"
	"errors"
	"fmt"
	catalogrepo "smartrentals/internal/catalog/repository"
	reservationserrors "smartrentals/internal/reservations/errors"
	"smartrentals/pkg/config"
	"smartrentals/pkg/db"
	mongotx "smartrentals/pkg/db/mongo"
	"smartrentals/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ReservationsCollection = "Reservations"
	LocksCollection        = "Reservation_locks"

	// LockTTL bounds how long an abandoned unit lock document lingers.
	LockTTL = time.Hour

	writeConflictCode = 112
)

type mongoLedger struct {
	cfg          *config.Config
	reservations *mongo.Collection
	locks        *mongo.Collection
	units        *mongo.Collection
	tx           db.TransactionManager
}

func NewMongoLedger(cfg *config.Config) Ledger {
	database := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoLedger{
		cfg:          cfg,
		reservations: database.Collection(ReservationsCollection),
		locks:        database.Collection(LocksCollection),
		units:        database.Collection(catalogrepo.UnitsCollection),
		tx:           mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

func (l *mongoLedger) Overlapping(ctx context.Context, unitID string, start, end time.Time) ([]*model.Reservation, error) {
	return l.find(ctx, overlapFilter(unitID, start, end))
}

// Insert locks the unit before the overlap check. A booking that loses the
// race on the lock document is reported as ErrConflict instead of being
// retried.
func (l *mongoLedger) Insert(ctx context.Context, r *model.Reservation) error {
	if !r.Start.Before(r.End) {
		return reservationserrors.ErrInvalidRange
	}

	return l.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		unit, err := l.lockUnit(ctx, r.UnitID)
		if err != nil {
			return err
		}
		if !unit.Active {
			return reservationserrors.ErrUnitInactive
		}

		n, err := l.reservations.CountDocuments(ctx, overlapFilter(r.UnitID, r.Start, r.End))
		if err != nil {
			return fmt.Errorf("failed to check overlapping reservations: %w", err)
		}
		if n > 0 {
			return reservationserrors.ErrConflict
		}

		if _, err := l.reservations.InsertOne(ctx, r); err != nil {
			if isWriteConflict(err) {
				return reservationserrors.ErrConflict
			}
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		return nil
	})
}

// lockUnit loads the unit and bumps its lock document. Two snapshot
// transactions locking the same unit both write that document, so the later
// one fails with a write conflict.
func (l *mongoLedger) lockUnit(ctx context.Context, unitID string) (*model.InventoryUnit, error) {
	var unit model.InventoryUnit
	if err := l.units.FindOne(ctx, bson.M{"_id": unitID}).Decode(&unit); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to load inventory unit: %w", err)
	}

	_, err := l.locks.UpdateOne(ctx,
		bson.M{"_id": unitID},
		bson.M{
			"$inc": bson.M{"version": 1},
			"$set": bson.M{"expires_at": time.Now().UTC().Add(LockTTL)},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if isWriteConflict(err) {
			return nil, reservationserrors.ErrConflict
		}
		return nil, fmt.Errorf("failed to lock inventory unit: %w", err)
	}
	return &unit, nil
}

func (l *mongoLedger) Usage(ctx context.Context, unitID string, now time.Time) (*model.UnitUsage, error) {
	usage := &model.UnitUsage{UnitID: unitID}
	err := l.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if _, err := l.lockUnit(ctx, unitID); err != nil {
			return err
		}

		live, err := l.reservations.CountDocuments(ctx, bson.M{
			"inventory_item_id": unitID,
			"voided":            false,
			"end_date":          bson.M{"$gt": now},
		})
		if err != nil {
			return fmt.Errorf("failed to count live reservations: %w", err)
		}
		total, err := l.reservations.CountDocuments(ctx, bson.M{"inventory_item_id": unitID})
		if err != nil {
			return fmt.Errorf("failed to count reservations: %w", err)
		}
		usage.Live, usage.Total = live, total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func (l *mongoLedger) FindByOrder(ctx context.Context, orderID string) ([]*model.Reservation, error) {
	return l.find(ctx, bson.M{"order_id": orderID})
}

func (l *mongoLedger) VoidByOrder(ctx context.Context, orderID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	res, err := l.reservations.UpdateMany(ctx,
		bson.M{"order_id": orderID, "voided": false},
		bson.M{"$set": bson.M{"voided": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to void reservations: %w", err)
	}
	return res.ModifiedCount, nil
}

func (l *mongoLedger) FindInWindow(ctx context.Context, start, end time.Time) ([]*model.Reservation, error) {
	return l.find(ctx, bson.M{
		"voided":     false,
		"start_date": bson.M{"$lt": end},
		"end_date":   bson.M{"$gt": start},
	})
}

func (l *mongoLedger) find(ctx context.Context, filter bson.M) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, l.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := l.reservations.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := []*model.Reservation{}
	if err := cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

func overlapFilter(unitID string, start, end time.Time) bson.M {
	return bson.M{
		"inventory_item_id": unitID,
		"voided":            false,
		"start_date":        bson.M{"$lt": end},
		"end_date":          bson.M{"$gt": start},
	}
}

// isWriteConflict reports a lost race between transactions: a server write
// conflict, or a duplicate key from two first-time lock upserts. Other
// transient failures, network errors among them, are not conflicts.
func isWriteConflict(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == writeConflictCode
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == writeConflictCode {
				return true
			}
		}
	}
	return false
}
