package repository

import (
	"context"
	"errors"
	"fmt"
	catalogerrors "smartrentals/internal/catalog/errors"
	"smartrentals/pkg/config"
	mongotx "smartrentals/pkg/db/mongo"
	"smartrentals/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoUnitRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUnitRepository(cfg *config.Config) UnitRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoUnitRepository{
		cfg:        cfg,
		collection: db.Collection(UnitsCollection),
	}
}

func (r *mongoUnitRepository) Create(ctx context.Context, unit *model.InventoryUnit) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, unit); err != nil {
		return fmt.Errorf("failed to create inventory unit: %w", err)
	}
	return nil
}

func (r *mongoUnitRepository) FindByID(ctx context.Context, id string) (*model.InventoryUnit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var unit model.InventoryUnit
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&unit); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to find inventory unit: %w", err)
	}
	return &unit, nil
}

func (r *mongoUnitRepository) Update(ctx context.Context, id string, update *model.InventoryUnitUpdate) (*model.InventoryUnit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{}
	if update.Label != nil {
		set["label"] = *update.Label
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.Active != nil {
		set["active"] = *update.Active
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var unit model.InventoryUnit
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&unit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to update inventory unit: %w", err)
	}
	return &unit, nil
}

func (r *mongoUnitRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete inventory unit: %w", err)
	}
	if res.DeletedCount == 0 {
		return catalogerrors.ErrUnitNotFound
	}
	return nil
}

func (r *mongoUnitRepository) FindByProduct(ctx context.Context, productID string, activeOnly bool) ([]*model.InventoryUnit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"product_id": productID}
	if activeOnly {
		filter["active"] = true
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory units: %w", err)
	}
	defer cursor.Close(ctx)

	units := []*model.InventoryUnit{}
	if err := cursor.All(ctx, &units); err != nil {
		return nil, fmt.Errorf("failed to decode inventory units: %w", err)
	}
	return units, nil
}

func (r *mongoUnitRepository) Counts(ctx context.Context) ([]*model.InventoryCount, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$product_id",
			"total": bson.M{"$sum": 1},
			"active": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$active", 1, 0},
			}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count inventory units: %w", err)
	}
	defer cursor.Close(ctx)

	counts := []*model.InventoryCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode inventory counts: %w", err)
	}
	return counts, nil
}
