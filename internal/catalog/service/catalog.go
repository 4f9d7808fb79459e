package service

import (
	"context"
	"errors"
	catalogerrors "smartrentals/internal/catalog/errors"
	"smartrentals/internal/catalog/repository"
	"smartrentals/internal/catalog/validator"
	reservationserrors "smartrentals/internal/reservations/errors"
	"smartrentals/pkg/config"
	"smartrentals/pkg/db"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/model"
	"smartrentals/pkg/sanitizer"
	"time"
)

const (
	DefaultUnitLocation = "Main Yard"
	defaultUnitSuffix   = " - Unit 1"
)

type CatalogService interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error)
	Categories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, create *model.ProductCreate) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, update *model.ProductUpdate) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) (*model.Removal, error)

	GetUnit(ctx context.Context, id string) (*model.InventoryUnit, error)
	ListUnits(ctx context.Context, productID string) ([]*model.InventoryUnit, error)
	ListActiveUnits(ctx context.Context, productID string) ([]*model.InventoryUnit, error)
	CreateUnit(ctx context.Context, create *model.InventoryUnitCreate) (*model.InventoryUnit, error)
	UpdateUnit(ctx context.Context, id string, update *model.InventoryUnitUpdate) (*model.InventoryUnit, error)
	DeleteUnit(ctx context.Context, id string) (*model.Removal, error)
	Counts(ctx context.Context) ([]*model.InventoryCount, error)
}

// Reservations reports how much of the ledger refers to a unit. Usage locks
// the unit against new bookings for the rest of the caller's transaction.
type Reservations interface {
	Usage(ctx context.Context, unitID string, now time.Time) (*model.UnitUsage, error)
}

type catalogService struct {
	products     repository.ProductRepository
	units        repository.UnitRepository
	reservations Reservations
	tx           db.TransactionManager
	validator    *validator.CatalogValidator
	cfg          *config.Config
}

func NewCatalogService(
	products repository.ProductRepository,
	units repository.UnitRepository,
	reservations Reservations,
	tx db.TransactionManager,
	validator *validator.CatalogValidator,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		products:     products,
		units:        units,
		reservations: reservations,
		tx:           tx,
		validator:    validator,
		cfg:          cfg,
	}
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Product ID cannot be empty")
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrProductNotFound) {
			return nil, apperrors.NotFoundWithID("Product", id)
		}
		s.cfg.Log.Error("Failed to retrieve product", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve product", err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	filter.Category = sanitizer.NormalizeCategory(filter.Category)

	products, err := s.products.FindAll(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list products", "error", err)
		return nil, apperrors.Internal("Failed to retrieve products", err)
	}
	return products, nil
}

func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.products.Categories(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list categories", "error", err)
		return nil, apperrors.Internal("Failed to retrieve categories", err)
	}
	return categories, nil
}

// CreateProduct defines a product and its first unit in one transaction, so
// a product is never listed without at least one unit behind it.
func (s *catalogService) CreateProduct(ctx context.Context, create *model.ProductCreate) (*model.Product, error) {
	s.sanitizeProduct(create)
	if err := s.validator.ValidateProductCreate(create); err != nil {
		s.cfg.Log.Warn("Product validation failed", "name", create.Name, "error", err)
		return nil, apperrors.Validation("Invalid product input", map[string]any{"error": err.Error()})
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	product := &model.Product{
		ID:          model.NewID(),
		Name:        create.Name,
		Description: create.Description,
		SKU:         create.SKU,
		ImageURL:    create.ImageURL,
		Category:    create.Category,
		MinHours:    create.MinHours,
		MaxHours:    create.MaxHours,
		Published:   create.Published,
		CreatedAt:   now,
	}
	if create.HourlyRate != nil {
		product.Rate = model.HourlyRate(create.HourlyRate.Rounded())
	} else {
		product.Rate = model.DailyRate(create.DailyRate.Rounded())
	}

	unit := &model.InventoryUnit{
		ID:        model.NewID(),
		ProductID: product.ID,
		Label:     product.Name + defaultUnitSuffix,
		Location:  DefaultUnitLocation,
		Active:    true,
		CreatedAt: now,
	}

	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.products.Create(ctx, product); err != nil {
			if errors.Is(err, catalogerrors.ErrDuplicateSKU) {
				return apperrors.Conflict("A product with this SKU already exists")
			}
			return apperrors.Internal("Failed to create product", err)
		}
		if err := s.units.Create(ctx, unit); err != nil {
			return apperrors.Internal("Failed to create default inventory unit", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create product", "name", product.Name, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Product created successfully",
		"id", product.ID,
		"rate_basis", product.Rate.Kind,
		"default_unit_id", unit.ID,
	)
	return product, nil
}

// UpdateProduct edits a product in place. Orders already placed keep the
// quotes stored on their lines, so a new rate only affects later quotes.
func (s *catalogService) UpdateProduct(ctx context.Context, id string, update *model.ProductUpdate) (*model.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Product ID cannot be empty")
	}
	s.sanitizeProductUpdate(update)
	if err := s.validator.ValidateProductUpdate(update); err != nil {
		s.cfg.Log.Warn("Product update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProductUpdate(product, update)

	if err := s.validator.ValidateProduct(product); err != nil {
		s.cfg.Log.Warn("Updated product is invalid", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	if err := s.products.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, catalogerrors.ErrDuplicateSKU):
			return nil, apperrors.Conflict("A product with this SKU already exists")
		case errors.Is(err, catalogerrors.ErrProductNotFound):
			return nil, apperrors.NotFoundWithID("Product", id)
		}
		s.cfg.Log.Error("Failed to update product", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update product", err)
	}

	s.cfg.Log.Info("Product updated successfully", "id", id, "rate_basis", product.Rate.Kind)
	return product, nil
}

// DeleteProduct removes a product and all of its units. A product whose
// units were ever reserved is unpublished and its units deactivated instead.
// Any live reservation refuses the removal.
func (s *catalogService) DeleteProduct(ctx context.Context, id string) (*model.Removal, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Product ID cannot be empty")
	}

	var removal *model.Removal
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		product, err := s.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		units, err := s.units.FindByProduct(ctx, id, false)
		if err != nil {
			return apperrors.Internal("Failed to retrieve inventory units", err)
		}

		now := time.Now().UTC()
		var history bool
		for _, unit := range units {
			usage, err := s.usage(ctx, unit.ID, now)
			if err != nil {
				return err
			}
			if usage.Live > 0 {
				return apperrors.Conflict("Product has live reservations").WithDetails(map[string]any{
					"inventory_item_id": unit.ID,
					"live_reservations": usage.Live,
				})
			}
			history = history || usage.Total > 0
		}

		removal = &model.Removal{ID: id, Units: len(units)}
		if history {
			removal.Outcome = model.RemovalDeactivated
			return s.retireProduct(ctx, product, units)
		}

		removal.Outcome = model.RemovalDeleted
		for _, unit := range units {
			if err := s.units.Delete(ctx, unit.ID); err != nil {
				return apperrors.Internal("Failed to delete inventory unit", err)
			}
		}
		if err := s.products.Delete(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete product", err)
		}
		return nil
	})
	if err != nil {
		s.logRemovalFailure("product", id, err)
		return nil, err
	}

	s.cfg.Log.Info("Product removed", "id", id, "outcome", removal.Outcome, "units", removal.Units)
	return removal, nil
}

func (s *catalogService) retireProduct(ctx context.Context, product *model.Product, units []*model.InventoryUnit) error {
	product.Published = false
	if err := s.products.Update(ctx, product); err != nil {
		return apperrors.Internal("Failed to unpublish product", err)
	}
	for _, unit := range units {
		if !unit.Active {
			continue
		}
		if err := s.deactivate(ctx, unit.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *catalogService) GetUnit(ctx context.Context, id string) (*model.InventoryUnit, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Inventory unit ID cannot be empty")
	}

	unit, err := s.units.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrUnitNotFound) {
			return nil, apperrors.NotFoundWithID("Inventory unit", id)
		}
		s.cfg.Log.Error("Failed to retrieve inventory unit", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve inventory unit", err)
	}
	return unit, nil
}

func (s *catalogService) ListUnits(ctx context.Context, productID string) ([]*model.InventoryUnit, error) {
	return s.unitsOf(ctx, productID, false)
}

// ListActiveUnits returns the product's active units in ascending id order.
// An unknown product is NotFound; a product without active units yields an
// empty list.
func (s *catalogService) ListActiveUnits(ctx context.Context, productID string) ([]*model.InventoryUnit, error) {
	return s.unitsOf(ctx, productID, true)
}

func (s *catalogService) unitsOf(ctx context.Context, productID string, activeOnly bool) ([]*model.InventoryUnit, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	units, err := s.units.FindByProduct(ctx, productID, activeOnly)
	if err != nil {
		s.cfg.Log.Error("Failed to list inventory units", "product_id", productID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve inventory units", err)
	}
	return units, nil
}

func (s *catalogService) CreateUnit(ctx context.Context, create *model.InventoryUnitCreate) (*model.InventoryUnit, error) {
	create.Label = sanitizer.NormalizeName(create.Label)
	create.Location = sanitizer.TrimAndNormalize(create.Location)
	if err := s.validator.ValidateUnitCreate(create); err != nil {
		s.cfg.Log.Warn("Inventory unit validation failed", "product_id", create.ProductID, "error", err)
		return nil, apperrors.Validation("Invalid inventory unit input", map[string]any{"error": err.Error()})
	}

	if _, err := s.GetProduct(ctx, create.ProductID); err != nil {
		return nil, err
	}

	unit := &model.InventoryUnit{
		ID:        model.NewID(),
		ProductID: create.ProductID,
		Label:     create.Label,
		Location:  create.Location,
		Active:    create.Active == nil || *create.Active,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.units.Create(ctx, unit); err != nil {
		s.cfg.Log.Error("Failed to create inventory unit", "product_id", unit.ProductID, "error", err)
		return nil, apperrors.Internal("Failed to create inventory unit", err)
	}

	s.cfg.Log.Info("Inventory unit created successfully", "id", unit.ID, "product_id", unit.ProductID)
	return unit, nil
}

func (s *catalogService) UpdateUnit(ctx context.Context, id string, update *model.InventoryUnitUpdate) (*model.InventoryUnit, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Inventory unit ID cannot be empty")
	}
	if update.Label != nil {
		label := sanitizer.NormalizeName(*update.Label)
		update.Label = &label
	}
	if update.Location != nil {
		location := sanitizer.TrimAndNormalize(*update.Location)
		update.Location = &location
	}
	if err := s.validator.ValidateUnitUpdate(update); err != nil {
		s.cfg.Log.Warn("Inventory unit update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	unit, err := s.units.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrUnitNotFound) {
			return nil, apperrors.NotFoundWithID("Inventory unit", id)
		}
		s.cfg.Log.Error("Failed to update inventory unit", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update inventory unit", err)
	}

	s.cfg.Log.Info("Inventory unit updated successfully", "id", id, "active", unit.Active)
	return unit, nil
}

// DeleteUnit removes a unit that was never reserved and deactivates one that
// was. A unit with live reservations is left alone.
func (s *catalogService) DeleteUnit(ctx context.Context, id string) (*model.Removal, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Inventory unit ID cannot be empty")
	}

	removal := &model.Removal{ID: id, Units: 1}
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		usage, err := s.usage(ctx, id, time.Now().UTC())
		if err != nil {
			return err
		}
		switch {
		case usage.Live > 0:
			return apperrors.Conflict("Inventory unit has live reservations").WithDetails(map[string]any{
				"inventory_item_id": id,
				"live_reservations": usage.Live,
			})
		case usage.Total > 0:
			removal.Outcome = model.RemovalDeactivated
			return s.deactivate(ctx, id)
		}

		removal.Outcome = model.RemovalDeleted
		if err := s.units.Delete(ctx, id); err != nil {
			if errors.Is(err, catalogerrors.ErrUnitNotFound) {
				return apperrors.NotFoundWithID("Inventory unit", id)
			}
			return apperrors.Internal("Failed to delete inventory unit", err)
		}
		return nil
	})
	if err != nil {
		s.logRemovalFailure("inventory unit", id, err)
		return nil, err
	}

	s.cfg.Log.Info("Inventory unit removed", "id", id, "outcome", removal.Outcome)
	return removal, nil
}

func (s *catalogService) usage(ctx context.Context, unitID string, now time.Time) (*model.UnitUsage, error) {
	usage, err := s.reservations.Usage(ctx, unitID, now)
	if err != nil {
		switch {
		case errors.Is(err, reservationserrors.ErrUnitNotFound):
			return nil, apperrors.NotFoundWithID("Inventory unit", unitID)
		case errors.Is(err, reservationserrors.ErrConflict):
			return nil, apperrors.Conflict("Inventory unit is being booked, retry the removal")
		}
		return nil, apperrors.Internal("Failed to read reservations", err)
	}
	return usage, nil
}

func (s *catalogService) deactivate(ctx context.Context, unitID string) error {
	inactive := false
	if _, err := s.units.Update(ctx, unitID, &model.InventoryUnitUpdate{Active: &inactive}); err != nil {
		if errors.Is(err, catalogerrors.ErrUnitNotFound) {
			return apperrors.NotFoundWithID("Inventory unit", unitID)
		}
		return apperrors.Internal("Failed to deactivate inventory unit", err)
	}
	return nil
}

func (s *catalogService) logRemovalFailure(resource, id string, err error) {
	if apperrors.HasCode(err, apperrors.CodeInternal) {
		s.cfg.Log.Error("Failed to remove "+resource, "id", id, "error", err)
		return
	}
	s.cfg.Log.Warn("Removal refused", "resource", resource, "id", id, "error", err)
}

func (s *catalogService) Counts(ctx context.Context) ([]*model.InventoryCount, error) {
	counts, err := s.units.Counts(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count inventory units", "error", err)
		return nil, apperrors.Internal("Failed to count inventory units", err)
	}
	return counts, nil
}

func (s *catalogService) sanitizeProduct(p *model.ProductCreate) {
	p.Name = sanitizer.NormalizeName(p.Name)
	p.Description = sanitizer.TrimAndNormalize(p.Description)
	p.SKU = sanitizer.NormalizeSKU(p.SKU)
	p.Category = sanitizer.NormalizeCategory(p.Category)
	p.ImageURL = sanitizer.NormalizeURL(p.ImageURL)
}

func (s *catalogService) sanitizeProductUpdate(u *model.ProductUpdate) {
	normalize := func(field *string, fn func(string) string) *string {
		if field == nil {
			return nil
		}
		v := fn(*field)
		return &v
	}
	u.Name = normalize(u.Name, sanitizer.NormalizeName)
	u.Description = normalize(u.Description, sanitizer.TrimAndNormalize)
	u.SKU = normalize(u.SKU, sanitizer.NormalizeSKU)
	u.Category = normalize(u.Category, sanitizer.NormalizeCategory)
	u.ImageURL = normalize(u.ImageURL, sanitizer.NormalizeURL)
}

func applyProductUpdate(p *model.Product, u *model.ProductUpdate) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.SKU != nil {
		p.SKU = *u.SKU
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	switch {
	case u.HourlyRate != nil:
		p.Rate = model.HourlyRate(u.HourlyRate.Rounded())
	case u.DailyRate != nil:
		p.Rate = model.DailyRate(u.DailyRate.Rounded())
	}
	if u.MinHours != nil {
		p.MinHours = u.MinHours
	}
	if u.MaxHours != nil {
		p.MaxHours = u.MaxHours
	}
	if u.Published != nil {
		p.Published = *u.Published
	}
}
