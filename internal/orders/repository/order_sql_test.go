package repository

import (
	"context"
	"smartrentals/internal/migrations/sqlschema/sqltest"
	orderserrors "smartrentals/internal/orders/errors"
	"smartrentals/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func sampleOrder(createdAt time.Time) *model.Order {
	id := model.NewID()
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return &model.Order{
		ID:           id,
		CustomerRef:  "cust-1",
		ContactPhone: "+16502530000",
		Status:       model.OrderPending,
		Currency:     "USD",
		Subtotal:     model.MustMoney("30.00"),
		Total:        model.MustMoney("30.00"),
		Lines: []model.OrderLine{{
			ReservationID: model.NewID(),
			ProductID:     "p1",
			UnitID:        "u1",
			Start:         start,
			End:           start.Add(3 * time.Hour),
			Quote: model.Quote{
				DurationHours: 3,
				RateBasis:     model.RateHourly,
				Rate:          model.MustMoney("10.00"),
				Total:         model.MustMoney("30.00"),
			},
		}},
		StatusHistory: []model.StatusChange{{To: model.OrderPending, At: createdAt}},
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func newRepo(t *testing.T) OrderRepository {
	t.Helper()
	return NewSQLOrderRepository(sqltest.NewDB(t))
}

func TestSQLOrderRepository_RoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	order := sampleOrder(created)

	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.CustomerRef, got.CustomerRef)
	assert.Equal(t, order.ContactPhone, got.ContactPhone)
	assert.Equal(t, "30.00", got.Total.String())
	assert.True(t, got.CreatedAt.Equal(created))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, order.Lines[0].ReservationID, got.Lines[0].ReservationID)
	assert.Equal(t, model.RateHourly, got.Lines[0].Quote.RateBasis)
	assert.True(t, got.Lines[0].End.Equal(order.Lines[0].End))
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, model.OrderPending, got.StatusHistory[0].To)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, orderserrors.ErrNotFound)
}

func TestSQLOrderRepository_UpdateStatus(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	order := sampleOrder(created)
	require.NoError(t, repo.Create(ctx, order))

	confirm := model.StatusChange{From: model.OrderPending, To: model.OrderConfirmed, At: created.Add(time.Hour)}
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, confirm))

	err := repo.UpdateStatus(ctx, order.ID, confirm)
	assert.ErrorIs(t, err, orderserrors.ErrStatusChanged)

	err = repo.UpdateStatus(ctx, "missing", confirm)
	assert.ErrorIs(t, err, orderserrors.ErrNotFound)

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, got.Status)
	assert.True(t, got.UpdatedAt.Equal(confirm.At))
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, model.OrderPending, got.StatusHistory[1].From)
}

func TestSQLOrderRepository_ListingAndPending(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	old := sampleOrder(created)
	recent := sampleOrder(created.Add(2 * time.Hour))
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, recent))

	all, err := repo.FindAll(ctx, model.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, recent.ID, all[0].ID)

	page, err := repo.FindAll(ctx, model.OrderFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, old.ID, page[0].ID)

	n, err := repo.Count(ctx, model.OrderFilter{Status: model.OrderConfirmed})
	require.NoError(t, err)
	assert.Zero(t, n)

	pending, err := repo.FindPendingBefore(ctx, created.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, old.ID, pending[0].ID)
}

func TestSQLOrderRepository_CustomerFilter(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	mine := sampleOrder(created)
	theirs := sampleOrder(created.Add(time.Hour))
	theirs.CustomerRef = "cust-2"
	mineLater := sampleOrder(created.Add(2 * time.Hour))
	for _, o := range []*model.Order{mine, theirs, mineLater} {
		require.NoError(t, repo.Create(ctx, o))
	}
	require.NoError(t, repo.UpdateStatus(ctx, mineLater.ID,
		model.StatusChange{From: model.OrderPending, To: model.OrderConfirmed, At: created.Add(3 * time.Hour)}))

	got, err := repo.FindAll(ctx, model.OrderFilter{CustomerRef: "cust-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, mineLater.ID, got[0].ID)
	assert.Equal(t, mine.ID, got[1].ID)

	n, err := repo.Count(ctx, model.OrderFilter{CustomerRef: "cust-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err = repo.FindAll(ctx, model.OrderFilter{CustomerRef: "cust-1", Status: model.OrderPending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	n, err = repo.Count(ctx, model.OrderFilter{CustomerRef: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLOrderRepository_SavePaymentOnce(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	order := sampleOrder(created)
	require.NoError(t, repo.Create(ctx, order))

	payment := &model.Payment{ID: model.NewID(), OrderID: order.ID, Method: "card", Amount: model.MustMoney("30"), CreatedAt: created}
	require.NoError(t, repo.SavePayment(ctx, payment))

	payment.ID = model.NewID()
	assert.ErrorIs(t, repo.SavePayment(ctx, payment), orderserrors.ErrPaymentExists)
}
