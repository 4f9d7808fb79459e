package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"smartrentals/internal/reports/service"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/middleware"
	"smartrentals/pkg/model"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "reports-handler-secret-0123456789"

type fakeService struct {
	start, end time.Time
	err        error
}

func (f *fakeService) UpcomingReservations(_ context.Context, start, end time.Time) ([]*model.Reservation, error) {
	f.start, f.end = start, end
	if f.err != nil {
		return nil, f.err
	}
	return []*model.Reservation{{ID: "r1", ProductID: "p1"}}, nil
}

func (f *fakeService) Utilization(_ context.Context, start, end time.Time) (*service.Utilization, error) {
	f.start, f.end = start, end
	return &service.Utilization{Days: 7, Percent: decimal.RequireFromString("47.62")}, f.err
}

func (f *fakeService) LateReturns(context.Context) ([]service.LateReturn, error) {
	return []service.LateReturn{{OrderID: "o1", HoursOverdue: 3}}, f.err
}

func newRouter(svc *fakeService) *httprouter.Router {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	router := httprouter.New()
	NewReportHandler(svc).RegisterRoutes(router, middleware.NewStaffAuth(jwtSecret, log))
	return router
}

func get(t *testing.T, router http.Handler, target string, withToken bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if withToken {
		token, err := middleware.GenerateStaffToken(jwtSecret, "ops", middleware.RoleStaff)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReports_RequireStaff(t *testing.T) {
	router := newRouter(&fakeService{})
	for _, path := range []string{
		"/api/v1/reports/upcoming-reservations",
		"/api/v1/reports/utilization",
		"/api/v1/reports/late-returns",
	} {
		rec := get(t, router, path, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestUpcomingReservations_PassesWindow(t *testing.T) {
	svc := &fakeService{}
	rec := get(t, newRouter(svc), "/api/v1/reports/upcoming-reservations?start=2026-05-04T00:00:00Z&end=2026-05-11T00:00:00Z", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"r1"`)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), svc.start)
	assert.Equal(t, time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), svc.end)
}

func TestUpcomingReservations_BadTime(t *testing.T) {
	rec := get(t, newRouter(&fakeService{}), "/api/v1/reports/upcoming-reservations?start=monday", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.CodeInvalidInput)
}

func TestUpcomingReservations_ServiceError(t *testing.T) {
	svc := &fakeService{err: apperrors.InvalidRange("start must be before end")}
	rec := get(t, newRouter(svc), "/api/v1/reports/upcoming-reservations", true)
	assert.Contains(t, rec.Body.String(), apperrors.CodeInvalidRange)
	assert.True(t, svc.start.IsZero())
}

func TestUtilization(t *testing.T) {
	rec := get(t, newRouter(&fakeService{}), "/api/v1/reports/utilization", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"utilization_percent":"47.62"`)
	assert.Contains(t, rec.Body.String(), `"days":7`)
}

func TestLateReturns(t *testing.T) {
	rec := get(t, newRouter(&fakeService{}), "/api/v1/reports/late-returns", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"order_id":"o1"`)
	assert.Contains(t, rec.Body.String(), `"hours_overdue":3`)
}
