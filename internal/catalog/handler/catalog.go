package handler

import (
	"net/http"
	"smartrentals/internal/catalog/service"
	apperrors "smartrentals/pkg/errors"
	httputil "smartrentals/pkg/http"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/middleware"
	"smartrentals/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CatalogHandler struct {
	service service.CatalogService
	log     *logger.Logger
}

func NewCatalogHandler(service service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log,
	}
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	product, err := h.service.GetProduct(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, product)
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	publishedOnly, err := httputil.ExtractBool(r, "published_only")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	inStockOnly, err := httputil.ExtractBool(r, "in_stock_only")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	products, err := h.service.ListProducts(r.Context(), model.ProductFilter{
		PublishedOnly: publishedOnly,
		InStockOnly:   inStockOnly,
		Category:      r.URL.Query().Get("category"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, products)
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, categories)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var create model.ProductCreate
	if err := httputil.DecodeStrict(r, &create); err != nil {
		httputil.WriteError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &create)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, product)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.ProductUpdate
	if err := httputil.DecodeStrict(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, product)
}

// DeleteProduct answers with the removal outcome, since a product with
// reservation history is retired rather than deleted.
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	removal, err := h.service.DeleteProduct(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, removal)
}

func (h *CatalogHandler) ListUnits(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("missing required parameter: product_id"))
		return
	}
	activeOnly, err := httputil.ExtractBool(r, "active_only")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var units []*model.InventoryUnit
	if activeOnly {
		units, err = h.service.ListActiveUnits(r.Context(), productID)
	} else {
		units, err = h.service.ListUnits(r.Context(), productID)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, units)
}

func (h *CatalogHandler) GetUnit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	unit, err := h.service.GetUnit(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, unit)
}

func (h *CatalogHandler) CreateUnit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var create model.InventoryUnitCreate
	if err := httputil.DecodeStrict(r, &create); err != nil {
		httputil.WriteError(w, err)
		return
	}

	unit, err := h.service.CreateUnit(r.Context(), &create)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, unit)
}

func (h *CatalogHandler) UpdateUnit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.InventoryUnitUpdate
	if err := httputil.DecodeStrict(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	unit, err := h.service.UpdateUnit(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, unit)
}

func (h *CatalogHandler) DeleteUnit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	removal, err := h.service.DeleteUnit(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, removal)
}

func (h *CatalogHandler) Counts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	counts, err := h.service.Counts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, counts)
}

func (h *CatalogHandler) RegisterRoutes(router *httprouter.Router, auth *middleware.StaffAuth) {
	router.GET("/api/v1/products", h.ListProducts)
	router.GET("/api/v1/products/:id", h.GetProduct)
	router.POST("/api/v1/products", auth.Require(middleware.RoleStaff, h.CreateProduct))
	router.PATCH("/api/v1/products/:id", auth.Require(middleware.RoleStaff, h.UpdateProduct))
	router.PUT("/api/v1/products/:id", auth.Require(middleware.RoleStaff, h.UpdateProduct))
	router.DELETE("/api/v1/products/:id", auth.Require(middleware.RoleStaff, h.DeleteProduct))
	router.GET("/api/v1/categories", h.Categories)

	router.GET("/api/v1/inventory", h.ListUnits)
	router.GET("/api/v1/inventory/counts", h.Counts)
	router.GET("/api/v1/inventory/id/:id", h.GetUnit)
	router.POST("/api/v1/inventory", auth.Require(middleware.RoleStaff, h.CreateUnit))
	router.PATCH("/api/v1/inventory/id/:id", auth.Require(middleware.RoleStaff, h.UpdateUnit))
	router.DELETE("/api/v1/inventory/id/:id", auth.Require(middleware.RoleStaff, h.DeleteUnit))
}
