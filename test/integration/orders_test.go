package integration

import (
	"context"
	"errors"
	"net/http"
	"smartrentals/pkg/client"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2031, 3, 3, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return monday.Add(time.Duration(hour) * time.Hour)
}

func hourlyProduct(t *testing.T, c *client.RentalsClient, rate string) *model.Product {
	t.Helper()
	r := model.MustMoney(rate)
	p, err := c.CreateProduct(context.Background(), &model.ProductCreate{
		Name:       "Scissor Lift",
		HourlyRate: &r,
		Published:  true,
	})
	require.NoError(t, err)
	return p
}

func orderFor(productID string, windows ...[2]time.Time) *model.OrderCreate {
	create := &model.OrderCreate{CustomerRef: "integration-customer", ProductID: productID}
	for _, w := range windows {
		create.Reservations = append(create.Reservations, model.ReservationRequest{StartDate: w[0], EndDate: w[1]})
	}
	return create
}

func apiCode(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func TestOrderLifecycle(t *testing.T) {
	c := newRentals(t)
	ctx := context.Background()
	product := hourlyProduct(t, c, "10.00")

	quote, err := c.Quote(ctx, client.QuoteRequest{ProductID: product.ID, Start: at(9), End: at(12)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), quote.DurationHours)
	assert.Equal(t, "30.00", quote.Total.String())

	order, err := c.PlaceOrder(ctx, orderFor(product.ID, [2]time.Time{at(9), at(12)}, [2]time.Time{at(30), at(32)}), "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, "50.00", order.Total.String())
	require.Len(t, order.Lines, 2)

	confirmed, err := c.ConfirmOrder(ctx, order.ID, &model.PaymentConfirmation{Method: "card", Amount: order.Total})
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, confirmed.Status)

	returned, err := c.ReturnOrder(ctx, order.ID, "back in the yard")
	require.NoError(t, err)
	assert.Equal(t, model.OrderReturned, returned.Status)

	got, err := c.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, 3)
	assert.Equal(t, model.OrderReturned, got.StatusHistory[2].To)

	_, err = c.CancelOrder(ctx, order.ID, "")
	assert.Equal(t, apperrors.CodeInvalidTransition, apiCode(err))
}

func TestOrder_AllOrNothing(t *testing.T) {
	c := newRentals(t)
	ctx := context.Background()
	product := hourlyProduct(t, c, "8.00")

	_, err := c.PlaceOrder(ctx, orderFor(product.ID, [2]time.Time{at(10), at(14)}), "")
	require.NoError(t, err)

	// The second line collides with the first order on the only unit.
	_, err = c.PlaceOrder(ctx, orderFor(product.ID, [2]time.Time{at(20), at(22)}, [2]time.Time{at(12), at(13)}), "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNoAvailability, apiCode(err))

	upcoming, err := c.UpcomingReservations(ctx, monday, monday.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)
}

func TestOrder_CancelReleasesUnit(t *testing.T) {
	c := newRentals(t)
	ctx := context.Background()
	product := hourlyProduct(t, c, "8.00")
	window := [2]time.Time{at(10), at(14)}

	order, err := c.PlaceOrder(ctx, orderFor(product.ID, window), "")
	require.NoError(t, err)
	_, err = c.CancelOrder(ctx, order.ID, "customer changed plans")
	require.NoError(t, err)

	units, err := c.AvailableUnits(ctx, product.ID, window[0], window[1])
	require.NoError(t, err)
	assert.Len(t, units, 1)

	_, err = c.PlaceOrder(ctx, orderFor(product.ID, window), "")
	assert.NoError(t, err)
}

func TestOrder_ConcurrentBookingsOfLastUnit(t *testing.T) {
	c := newRentals(t)
	ctx := context.Background()
	product := hourlyProduct(t, c, "8.00")

	const racers = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     int
		refused []string
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.PlaceOrder(ctx, orderFor(product.ID, [2]time.Time{at(10), at(14)}), "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
				return
			}
			refused = append(refused, apiCode(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	for _, code := range refused {
		assert.Contains(t, []string{apperrors.CodeNoAvailability, apperrors.CodeConflict}, code)
	}
}

func TestPlaceOrder_IdempotentRetry(t *testing.T) {
	c := newRentals(t)
	ctx := context.Background()
	product := hourlyProduct(t, c, "8.00")
	create := orderFor(product.ID, [2]time.Time{at(10), at(14)})

	first, err := c.PlaceOrder(ctx, create, "retry-me")
	require.NoError(t, err)
	second, err := c.PlaceOrder(ctx, create, "retry-me")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestConfirm_RejectsBadSignature(t *testing.T) {
	c := newRentals(t)
	ctx := context.Background()
	product := hourlyProduct(t, c, "8.00")
	order, err := c.PlaceOrder(ctx, orderFor(product.ID, [2]time.Time{at(10), at(14)}), "")
	require.NoError(t, err)

	unsigned := client.NewRentalsClient(c.BaseURL(), client.WithWebhookSecret("wrong-secret"))
	_, err = unsigned.ConfirmOrder(ctx, order.ID, &model.PaymentConfirmation{Method: "card", Amount: order.Total})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestCatalogRemoval_RespectsLiveReservations(t *testing.T) {
	c := newRentals(t)
	ctx := context.Background()
	product := hourlyProduct(t, c, "12.00")

	create := orderFor(product.ID, [2]time.Time{at(10), at(12)})
	create.CustomerRef = "removal-" + product.ID
	order, err := c.PlaceOrder(ctx, create, "")
	require.NoError(t, err)
	unitID := order.Lines[0].UnitID

	_, err = c.DeleteUnit(ctx, unitID)
	assert.Equal(t, apperrors.CodeConflict, apiCode(err))
	_, err = c.DeleteProduct(ctx, product.ID)
	assert.Equal(t, apperrors.CodeConflict, apiCode(err))

	daily := model.MustMoney("90")
	updated, err := c.UpdateProduct(ctx, product.ID, &model.ProductUpdate{DailyRate: &daily})
	require.NoError(t, err)
	assert.Equal(t, model.RateDaily, updated.Rate.Kind)

	mine, err := c.MyOrders(ctx, create.CustomerRef)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)
	assert.Equal(t, "24.00", mine[0].Total.String())

	_, err = c.CancelOrder(ctx, order.ID, "")
	require.NoError(t, err)

	removal, err := c.DeleteProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RemovalDeactivated, removal.Outcome)

	got, err := c.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, got.Published)
}
