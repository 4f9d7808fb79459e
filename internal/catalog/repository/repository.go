package repository

import (
	"context"
	"smartrentals/pkg/model"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	// Update replaces the stored product with p.
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// UnitRepository stores the physical units of each product. Listings are
// ordered by ascending id, which for UUIDv7 ids is creation order.
type UnitRepository interface {
	Create(ctx context.Context, unit *model.InventoryUnit) error
	FindByID(ctx context.Context, id string) (*model.InventoryUnit, error)
	Update(ctx context.Context, id string, update *model.InventoryUnitUpdate) (*model.InventoryUnit, error)
	Delete(ctx context.Context, id string) error
	FindByProduct(ctx context.Context, productID string, activeOnly bool) ([]*model.InventoryUnit, error)
	Counts(ctx context.Context) ([]*model.InventoryCount, error)
}
