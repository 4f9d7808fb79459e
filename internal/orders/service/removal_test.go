package service_test

import (
	"context"
	"smartrentals/internal/orders/service"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upcoming is a window well after any test run, so its reservation stays live.
func upcoming(fromHour, toHour int) service.Window {
	base := time.Date(2031, 3, 10, 0, 0, 0, 0, time.UTC)
	return service.Window{
		Start: base.Add(time.Duration(fromHour) * time.Hour),
		End:   base.Add(time.Duration(toHour) * time.Hour),
	}
}

func TestDeleteUnit_Outcomes(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.product(t, productSpec{hourly: "10"})
	booked := e.units(t, p.ID)[0]
	spare := e.addUnit(t, p.ID, true)

	order, err := e.book(p.ID, upcoming(10, 12))
	require.NoError(t, err)
	require.Equal(t, booked.ID, order.Lines[0].UnitID)

	_, err = e.catalog.DeleteUnit(ctx, booked.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)
	unit, err := e.catalog.GetUnit(ctx, booked.ID)
	require.NoError(t, err)
	assert.True(t, unit.Active)

	_, err = e.orders.Cancel(ctx, order.ID, &model.StatusNote{})
	require.NoError(t, err)

	removal, err := e.catalog.DeleteUnit(ctx, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RemovalDeactivated, removal.Outcome)
	unit, err = e.catalog.GetUnit(ctx, booked.ID)
	require.NoError(t, err)
	assert.False(t, unit.Active)

	removal, err = e.catalog.DeleteUnit(ctx, spare.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RemovalDeleted, removal.Outcome)
	_, err = e.catalog.GetUnit(ctx, spare.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = e.catalog.DeleteUnit(ctx, spare.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestDeleteUnit_PastReservationDeactivates(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.product(t, productSpec{hourly: "10"})
	unit := e.units(t, p.ID)[0]

	_, err := e.book(p.ID, window(10, 12))
	require.NoError(t, err)

	removal, err := e.catalog.DeleteUnit(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RemovalDeactivated, removal.Outcome)

	_, err = e.book(p.ID, window(20, 22))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNoAvailability), "got %v", err)
}

func TestDeleteProduct_Outcomes(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	t.Run("never booked", func(t *testing.T) {
		p := e.product(t, productSpec{daily: "40"})
		e.addUnit(t, p.ID, false)

		removal, err := e.catalog.DeleteProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RemovalDeleted, removal.Outcome)
		assert.Equal(t, 2, removal.Units)

		_, err = e.catalog.GetProduct(ctx, p.ID)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	t.Run("live reservation", func(t *testing.T) {
		p := e.product(t, productSpec{hourly: "10"})
		_, err := e.book(p.ID, upcoming(1, 3))
		require.NoError(t, err)

		_, err = e.catalog.DeleteProduct(ctx, p.ID)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)

		product, err := e.catalog.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, product.Published)
	})

	t.Run("history only", func(t *testing.T) {
		p := e.product(t, productSpec{hourly: "10"})
		e.addUnit(t, p.ID, true)
		_, err := e.book(p.ID, window(1, 3))
		require.NoError(t, err)

		removal, err := e.catalog.DeleteProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RemovalDeactivated, removal.Outcome)

		product, err := e.catalog.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, product.Published)
		active, err := e.catalog.ListActiveUnits(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, active)
	})
}

func TestUpdateProduct_KeepsPlacedQuotes(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.product(t, productSpec{hourly: "10", minHours: 2})

	before, err := e.book(p.ID, window(10, 13))
	require.NoError(t, err)
	require.Equal(t, "30.00", before.Total.String())

	daily := model.MustMoney("100")
	updated, err := e.catalog.UpdateProduct(ctx, p.ID, &model.ProductUpdate{DailyRate: &daily})
	require.NoError(t, err)
	assert.Equal(t, model.RateDaily, updated.Rate.Kind)
	require.NotNil(t, updated.MinHours)
	assert.Equal(t, int64(2), *updated.MinHours)

	stored, err := e.orders.GetOrder(ctx, before.ID)
	require.NoError(t, err)
	assert.Equal(t, "30.00", stored.Total.String())
	assert.Equal(t, model.RateHourly, stored.Lines[0].Quote.RateBasis)

	after, err := e.book(p.ID, window(20, 23))
	require.NoError(t, err)
	assert.Equal(t, model.RateDaily, after.Lines[0].Quote.RateBasis)
	assert.NotEqual(t, "30.00", after.Total.String())

	tooShort := int64(1)
	_, err = e.catalog.UpdateProduct(ctx, p.ID, &model.ProductUpdate{MaxHours: &tooShort})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
}

func TestListOrders_ByCustomer(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.product(t, productSpec{hourly: "10"})

	mine, err := e.book(p.ID, window(1, 3))
	require.NoError(t, err)
	_, err = e.orders.BookOrder(ctx, p.ID, []service.Window{window(5, 7)}, "cust-2")
	require.NoError(t, err)

	orders, total, err := e.orders.ListOrders(ctx, model.OrderFilter{CustomerRef: " cust-1 "})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ID)
}
