package repository

import (
	"context"
	catalogerrors "smartrentals/internal/catalog/errors"
	"smartrentals/internal/migrations/sqlschema/sqltest"
	"smartrentals/pkg/db/sqldb"
	"smartrentals/pkg/model"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(name, category string, published bool) *model.Product {
	minHours := int64(2)
	return &model.Product{
		ID:        model.NewID(),
		Name:      name,
		Category:  category,
		Rate:      model.HourlyRate(model.MustMoney("10.00")),
		MinHours:  &minHours,
		Published: published,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func newUnit(productID, label string, active bool) *model.InventoryUnit {
	return &model.InventoryUnit{
		ID:        model.NewID(),
		ProductID: productID,
		Label:     label,
		Active:    active,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestSQLProductRepository_RoundTrip(t *testing.T) {
	db := sqltest.NewDB(t)
	repo := NewSQLProductRepository(db)
	ctx := context.Background()

	p := newProduct("Mixer", "Tools", true)
	p.SKU = "MX-1"
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, model.RateHourly, got.Rate.Kind)
	assert.Equal(t, "10.00", got.Rate.Rate.String())
	require.NotNil(t, got.MinHours)
	assert.Equal(t, int64(2), *got.MinHours)
	assert.Nil(t, got.MaxHours)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, catalogerrors.ErrProductNotFound)

	dup := newProduct("Other Mixer", "Tools", true)
	dup.SKU = "MX-1"
	assert.ErrorIs(t, repo.Create(ctx, dup), catalogerrors.ErrDuplicateSKU)
}

func TestSQLProductRepository_UpdateAndDelete(t *testing.T) {
	db := sqltest.NewDB(t)
	products := NewSQLProductRepository(db)
	units := NewSQLUnitRepository(db)
	ctx := context.Background()

	p := newProduct("Mixer", "Tools", true)
	require.NoError(t, products.Create(ctx, p))
	other := newProduct("Saw", "Tools", true)
	other.SKU = "SAW-1"
	require.NoError(t, products.Create(ctx, other))

	maxHours := int64(48)
	p.Rate = model.DailyRate(model.MustMoney("45.50"))
	p.MaxHours = &maxHours
	p.Published = false
	require.NoError(t, products.Update(ctx, p))

	got, err := products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RateDaily, got.Rate.Kind)
	assert.Equal(t, "45.50", got.Rate.Rate.String())
	require.NotNil(t, got.MaxHours)
	assert.Equal(t, int64(48), *got.MaxHours)
	assert.False(t, got.Published)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))

	p.SKU = "SAW-1"
	assert.ErrorIs(t, products.Update(ctx, p), catalogerrors.ErrDuplicateSKU)

	missing := newProduct("Ghost", "", true)
	assert.ErrorIs(t, products.Update(ctx, missing), catalogerrors.ErrProductNotFound)

	unit := newUnit(other.ID, "Saw 1", true)
	require.NoError(t, units.Create(ctx, unit))
	require.NoError(t, units.Delete(ctx, unit.ID))
	assert.ErrorIs(t, units.Delete(ctx, unit.ID), catalogerrors.ErrUnitNotFound)

	require.NoError(t, products.Delete(ctx, other.ID))
	_, err = products.FindByID(ctx, other.ID)
	assert.ErrorIs(t, err, catalogerrors.ErrProductNotFound)
	assert.ErrorIs(t, products.Delete(ctx, other.ID), catalogerrors.ErrProductNotFound)
}

func TestSQLProductRepository_FindAllFilters(t *testing.T) {
	db := sqltest.NewDB(t)
	products := NewSQLProductRepository(db)
	units := NewSQLUnitRepository(db)
	ctx := context.Background()

	stocked := newProduct("Auger", "Garden", true)
	draft := newProduct("Breaker", "Demolition", false)
	retired := newProduct("Compactor", "Demolition", true)
	for _, p := range []*model.Product{stocked, draft, retired} {
		require.NoError(t, products.Create(ctx, p))
	}
	require.NoError(t, units.Create(ctx, newUnit(stocked.ID, "Auger 1", true)))
	require.NoError(t, units.Create(ctx, newUnit(retired.ID, "Compactor 1", false)))

	all, err := products.FindAll(ctx, model.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	published, err := products.FindAll(ctx, model.ProductFilter{PublishedOnly: true})
	require.NoError(t, err)
	assert.Len(t, published, 2)

	inStock, err := products.FindAll(ctx, model.ProductFilter{PublishedOnly: true, InStockOnly: true})
	require.NoError(t, err)
	require.Len(t, inStock, 1)
	assert.Equal(t, stocked.ID, inStock[0].ID)

	demolition, err := products.FindAll(ctx, model.ProductFilter{Category: "Demolition"})
	require.NoError(t, err)
	assert.Len(t, demolition, 2)

	categories, err := products.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Demolition", "Garden"}, categories)
}

func TestSQLUnitRepository_OrderingAndUpdate(t *testing.T) {
	db := sqltest.NewDB(t)
	products := NewSQLProductRepository(db)
	units := NewSQLUnitRepository(db)
	ctx := context.Background()

	p := newProduct("Lift", "", true)
	require.NoError(t, products.Create(ctx, p))

	first := newUnit(p.ID, "Lift 1", true)
	second := newUnit(p.ID, "Lift 2", true)
	third := newUnit(p.ID, "Lift 3", true)
	for _, u := range []*model.InventoryUnit{third, first, second} {
		require.NoError(t, units.Create(ctx, u))
	}

	active := false
	updated, err := units.Update(ctx, second.ID, &model.InventoryUnitUpdate{Active: &active})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	list, err := units.FindByProduct(ctx, p.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, third.ID, list[1].ID)

	counts, err := units.Counts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, int64(3), counts[0].Total)
	assert.Equal(t, int64(2), counts[0].Active)

	_, err = units.Update(ctx, "missing", &model.InventoryUnitUpdate{Active: &active})
	assert.ErrorIs(t, err, catalogerrors.ErrUnitNotFound)
}

func TestSQLUnitRepository_PostgresPlaceholders(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	repo := NewSQLUnitRepository(&sqldb.DB{DB: conn, Dialect: sqldb.Postgres})

	rows := sqlmock.NewRows([]string{"id", "product_id", "label", "location", "active", "created_at"}).
		AddRow("u1", "p1", "Lift 1", "Main Yard", true, int64(0))
	mock.ExpectQuery(`SELECT .* FROM inventory_units WHERE product_id = \$1 AND active = \$2 ORDER BY id`).
		WithArgs("p1", true).
		WillReturnRows(rows)

	units, err := repo.FindByProduct(context.Background(), "p1", true)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Main Yard", units[0].Location)
	assert.NoError(t, mock.ExpectationsWereMet())
}
