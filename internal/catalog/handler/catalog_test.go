package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"smartrentals/internal/catalog/service"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/middleware"
	"smartrentals/pkg/model"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "catalog-handler-secret-0123456789"

type fakeService struct {
	service.CatalogService
	filter     model.ProductFilter
	activeOnly bool
	update     *model.InventoryUnitUpdate
	productUpd *model.ProductUpdate
	removed    string
	err        error
}

func (f *fakeService) ListProducts(_ context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	f.filter = filter
	return []*model.Product{{ID: "p1", Name: "Lift"}}, f.err
}

func (f *fakeService) CreateProduct(_ context.Context, create *model.ProductCreate) (*model.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Product{ID: "p1", Name: create.Name, Rate: model.HourlyRate(*create.HourlyRate)}, nil
}

func (f *fakeService) ListUnits(context.Context, string) ([]*model.InventoryUnit, error) {
	return []*model.InventoryUnit{{ID: "u1"}, {ID: "u2"}}, nil
}

func (f *fakeService) ListActiveUnits(context.Context, string) ([]*model.InventoryUnit, error) {
	f.activeOnly = true
	return []*model.InventoryUnit{{ID: "u1"}}, nil
}

func (f *fakeService) UpdateUnit(_ context.Context, id string, update *model.InventoryUnitUpdate) (*model.InventoryUnit, error) {
	f.update = update
	return &model.InventoryUnit{ID: id, Active: *update.Active}, nil
}

func (f *fakeService) UpdateProduct(_ context.Context, id string, update *model.ProductUpdate) (*model.Product, error) {
	f.productUpd = update
	if f.err != nil {
		return nil, f.err
	}
	return &model.Product{ID: id, Name: "Lift", Rate: model.DailyRate(*update.DailyRate)}, nil
}

func (f *fakeService) DeleteProduct(_ context.Context, id string) (*model.Removal, error) {
	f.removed = id
	if f.err != nil {
		return nil, f.err
	}
	return &model.Removal{ID: id, Outcome: model.RemovalDeactivated, Units: 2}, nil
}

func (f *fakeService) DeleteUnit(_ context.Context, id string) (*model.Removal, error) {
	f.removed = id
	if f.err != nil {
		return nil, f.err
	}
	return &model.Removal{ID: id, Outcome: model.RemovalDeleted, Units: 1}, nil
}

func (f *fakeService) Counts(context.Context) ([]*model.InventoryCount, error) {
	return []*model.InventoryCount{{ProductID: "p1", Total: 3, Active: 2}}, nil
}

func newRouter(svc *fakeService) *httprouter.Router {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	router := httprouter.New()
	NewCatalogHandler(svc, log).RegisterRoutes(router, middleware.NewStaffAuth(jwtSecret, log))
	return router
}

func serve(t *testing.T, svc *fakeService, method, target, body string, asStaff bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if asStaff {
		token, err := middleware.GenerateStaffToken(jwtSecret, "ops", middleware.RoleStaff)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)
	return rec
}

func TestListProducts_Filters(t *testing.T) {
	svc := &fakeService{}
	rec := serve(t, svc, http.MethodGet, "/api/v1/products?published_only=true&in_stock_only=true&category=lifts", "", false)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ProductFilter{PublishedOnly: true, InStockOnly: true, Category: "lifts"}, svc.filter)
}

func TestListProducts_BadBool(t *testing.T) {
	rec := serve(t, &fakeService{}, http.MethodGet, "/api/v1/products?published_only=maybe", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProduct(t *testing.T) {
	body := `{"name":"Scissor Lift","hourly_rate":"12.5","published":true}`

	rec := serve(t, &fakeService{}, http.MethodPost, "/api/v1/products", body, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, &fakeService{}, http.MethodPost, "/api/v1/products", body, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rate_basis":{"kind":"hourly","rate":"12.50"}`)

	rec = serve(t, &fakeService{}, http.MethodPost, "/api/v1/products", `{"name":"Lift","weekly_rate":"1"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc := &fakeService{err: apperrors.Conflict("A product with this SKU already exists")}
	rec = serve(t, svc, http.MethodPost, "/api/v1/products", body, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListUnits(t *testing.T) {
	rec := serve(t, &fakeService{}, http.MethodGet, "/api/v1/inventory", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc := &fakeService{}
	rec = serve(t, svc, http.MethodGet, "/api/v1/inventory?product_id=p1&active_only=true", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.activeOnly)
	assert.NotContains(t, rec.Body.String(), `"u2"`)
}

func TestUpdateUnit_StaffOnly(t *testing.T) {
	rec := serve(t, &fakeService{}, http.MethodPatch, "/api/v1/inventory/id/u1", `{"active":false}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	svc := &fakeService{}
	rec = serve(t, svc, http.MethodPatch, "/api/v1/inventory/id/u1", `{"active":false}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.update.Active)
	assert.False(t, *svc.update.Active)
}

func TestCounts_DoesNotCollideWithUnitID(t *testing.T) {
	rec := serve(t, &fakeService{}, http.MethodGet, "/api/v1/inventory/counts", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":2`)
}

func TestUpdateProduct_StaffOnly(t *testing.T) {
	body := `{"daily_rate":"80"}`

	rec := serve(t, &fakeService{}, http.MethodPatch, "/api/v1/products/p1", body, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	svc := &fakeService{}
	rec = serve(t, svc, http.MethodPatch, "/api/v1/products/p1", body, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.productUpd.HourlyRate)
	assert.Contains(t, rec.Body.String(), `"rate_basis":{"kind":"daily","rate":"80.00"}`)

	rec = serve(t, &fakeService{}, http.MethodPut, "/api/v1/products/p1", body, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, &fakeService{}, http.MethodPatch, "/api/v1/products/p1", `{"rate":"80"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	rec := serve(t, &fakeService{}, http.MethodDelete, "/api/v1/products/p1", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	svc := &fakeService{}
	rec = serve(t, svc, http.MethodDelete, "/api/v1/products/p1", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", svc.removed)
	assert.Contains(t, rec.Body.String(), `"outcome":"deactivated"`)
	assert.Contains(t, rec.Body.String(), `"units":2`)

	svc = &fakeService{err: apperrors.Conflict("Product has live reservations")}
	rec = serve(t, svc, http.MethodDelete, "/api/v1/products/p1", "", true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "live reservations")
}

func TestDeleteUnit(t *testing.T) {
	rec := serve(t, &fakeService{}, http.MethodDelete, "/api/v1/inventory/id/u1", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	svc := &fakeService{}
	rec = serve(t, svc, http.MethodDelete, "/api/v1/inventory/id/u1", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", svc.removed)
	assert.Contains(t, rec.Body.String(), `"outcome":"deleted"`)

	svc = &fakeService{err: apperrors.NotFoundWithID("Inventory unit", "u9")}
	rec = serve(t, svc, http.MethodDelete, "/api/v1/inventory/id/u9", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
