package main

import (
	"context"
	"fmt"
	"os"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/model"

	"gopkg.in/yaml.v3"
)

type SeedUnit struct {
	Label    string `yaml:"label"`
	Location string `yaml:"location"`
	Inactive bool   `yaml:"inactive"`
}

type SeedProduct struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	SKU         string       `yaml:"sku"`
	ImageURL    string       `yaml:"image_url"`
	Category    string       `yaml:"category"`
	HourlyRate  *model.Money `yaml:"hourly_rate"`
	DailyRate   *model.Money `yaml:"daily_rate"`
	MinHours    *int64       `yaml:"min_hours"`
	MaxHours    *int64       `yaml:"max_hours"`
	Published   bool         `yaml:"published"`
	Units       []SeedUnit   `yaml:"units"`
}

type SeedCatalog struct {
	Products []SeedProduct `yaml:"products"`
}

// Catalog is the part of the catalog service the seeder writes through.
type Catalog interface {
	CreateProduct(ctx context.Context, create *model.ProductCreate) (*model.Product, error)
	CreateUnit(ctx context.Context, create *model.InventoryUnitCreate) (*model.InventoryUnit, error)
}

type SeedResult struct {
	Products int
	Units    int
	Skipped  int
}

func readCatalog(path string) (*SeedCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*SeedCatalog, error) {
	var c SeedCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if len(c.Products) == 0 {
		return nil, fmt.Errorf("seed file defines no products")
	}
	return &c, nil
}

// seedCatalog creates every product with its extra units. Products whose SKU
// already exists are skipped, so a seed file can be applied repeatedly.
func seedCatalog(ctx context.Context, catalog Catalog, c *SeedCatalog, log *logger.Logger) (SeedResult, error) {
	var res SeedResult
	for _, p := range c.Products {
		product, err := catalog.CreateProduct(ctx, &model.ProductCreate{
			Name:        p.Name,
			Description: p.Description,
			SKU:         p.SKU,
			ImageURL:    p.ImageURL,
			Category:    p.Category,
			HourlyRate:  p.HourlyRate,
			DailyRate:   p.DailyRate,
			MinHours:    p.MinHours,
			MaxHours:    p.MaxHours,
			Published:   p.Published,
		})
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			log.Info("Product already seeded", "name", p.Name, "sku", p.SKU)
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("creating product %q: %w", p.Name, err)
		}
		res.Products++
		res.Units++

		for _, u := range p.Units {
			active := !u.Inactive
			if _, err := catalog.CreateUnit(ctx, &model.InventoryUnitCreate{
				ProductID: product.ID,
				Label:     u.Label,
				Location:  u.Location,
				Active:    &active,
			}); err != nil {
				return res, fmt.Errorf("creating unit %q of %q: %w", u.Label, p.Name, err)
			}
			res.Units++
		}
	}
	return res, nil
}
