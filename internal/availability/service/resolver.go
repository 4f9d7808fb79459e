package service

import (
	"context"
	"smartrentals/internal/reservations/repository"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/model"
	"time"
)

// Catalog is the part of the catalog the engine reads.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListActiveUnits(ctx context.Context, productID string) ([]*model.InventoryUnit, error)
}

// Resolver finds free units. Units are walked in the ascending id order the
// catalog returns them in, so an unchanged ledger always yields the same unit.
type Resolver struct {
	catalog Catalog
	ledger  repository.Ledger
	log     *logger.Logger
}

func NewResolver(catalog Catalog, ledger repository.Ledger, log *logger.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		ledger:  ledger,
		log:     log,
	}
}

// FindAvailableUnit returns the first active unit of productID that is free
// for [start, end), or nil when every unit is taken. A nil unit is not an
// error.
func (r *Resolver) FindAvailableUnit(ctx context.Context, productID string, start, end time.Time) (*model.InventoryUnit, error) {
	if err := CheckRange(start, end); err != nil {
		return nil, err
	}

	units, err := r.catalog.ListActiveUnits(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, unit := range units {
		free, err := r.IsFree(ctx, unit.ID, start, end)
		if err != nil {
			return nil, err
		}
		if free {
			return unit, nil
		}
	}
	return nil, nil
}

// AvailableUnits returns every active unit of productID that is free for
// [start, end), in the same order FindAvailableUnit walks them.
func (r *Resolver) AvailableUnits(ctx context.Context, productID string, start, end time.Time) ([]*model.InventoryUnit, error) {
	if err := CheckRange(start, end); err != nil {
		return nil, err
	}

	units, err := r.catalog.ListActiveUnits(ctx, productID)
	if err != nil {
		return nil, err
	}
	free := make([]*model.InventoryUnit, 0, len(units))
	for _, unit := range units {
		ok, err := r.IsFree(ctx, unit.ID, start, end)
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, unit)
		}
	}
	return free, nil
}

func (r *Resolver) IsFree(ctx context.Context, unitID string, start, end time.Time) (bool, error) {
	overlapping, err := r.ledger.Overlapping(ctx, unitID, start, end)
	if err != nil {
		r.log.WithContext(ctx).Error("Failed to check unit availability", "unit_id", unitID, "error", err)
		return false, apperrors.Internal("Failed to check availability", err)
	}
	return len(overlapping) == 0, nil
}
