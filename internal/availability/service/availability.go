package service

import (
	"context"
	"smartrentals/pkg/config"
	"smartrentals/pkg/model"
	"time"
)

type AvailabilityService interface {
	AvailableUnits(ctx context.Context, productID string, start, end time.Time) ([]*model.InventoryUnit, error)
	Quote(ctx context.Context, productID string, start, end time.Time) (*model.Quote, error)
}

type availabilityService struct {
	catalog  Catalog
	resolver *Resolver
	cfg      *config.Config
}

func NewAvailabilityService(catalog Catalog, resolver *Resolver, cfg *config.Config) AvailabilityService {
	return &availabilityService{
		catalog:  catalog,
		resolver: resolver,
		cfg:      cfg,
	}
}

func (s *availabilityService) AvailableUnits(ctx context.Context, productID string, start, end time.Time) ([]*model.InventoryUnit, error) {
	units, err := s.resolver.AvailableUnits(ctx, productID, start, end)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.WithContext(ctx).Debug("Availability checked",
		"product_id", productID,
		"start", start,
		"end", end,
		"available", len(units),
	)
	return units, nil
}

// Quote validates the window before touching storage, then prices it.
func (s *availabilityService) Quote(ctx context.Context, productID string, start, end time.Time) (*model.Quote, error) {
	if err := CheckRange(start, end); err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	quote, err := ComputeQuote(product, start, end)
	if err != nil {
		s.cfg.Log.WithContext(ctx).Warn("Quote rejected", "product_id", productID, "error", err)
		return nil, err
	}
	return quote, nil
}
