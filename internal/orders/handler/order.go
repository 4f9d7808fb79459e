package handler

import (
	"net/http"
	"smartrentals/internal/orders/service"
	apperrors "smartrentals/pkg/errors"
	httputil "smartrentals/pkg/http"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/middleware"
	"smartrentals/pkg/model"
	"strings"

	"github.com/julienschmidt/httprouter"
)

type OrderHandler struct {
	service       service.OrderService
	webhookSecret string
	log           *logger.Logger
}

func NewOrderHandler(service service.OrderService, webhookSecret string, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		service:       service,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// PlaceOrder books an order. The customer reference defaults to the
// X-Customer-Ref header the rate limiter keys on.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var create model.OrderCreate
	if err := httputil.DecodeStrict(r, &create); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if create.CustomerRef == "" {
		create.CustomerRef = r.Header.Get(middleware.CustomerRefHeader)
	}

	order, err := h.service.PlaceOrder(r.Context(), &create)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, order)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	order, err := h.service.GetOrder(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, order)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.listOrders(w, r, r.URL.Query().Get("customer_ref"))
}

// MyOrders lists the orders of the customer named by the X-Customer-Ref
// header, newest first.
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerRef := strings.TrimSpace(r.Header.Get(middleware.CustomerRefHeader))
	if customerRef == "" {
		httputil.WriteError(w, apperrors.InvalidInput("missing required header: "+middleware.CustomerRefHeader))
		return
	}
	h.listOrders(w, r, customerRef)
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request, customerRef string) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	orders, total, err := h.service.ListOrders(r.Context(), model.OrderFilter{
		Status:      model.OrderStatus(r.URL.Query().Get("status")),
		CustomerRef: customerRef,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WritePaginated(w, orders, total, limit, int(offset))
}

func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var payment model.PaymentConfirmation
	if err := httputil.DecodeStrict(r, &payment); err != nil {
		httputil.WriteError(w, err)
		return
	}

	order, err := h.service.Confirm(r.Context(), ps.ByName("id"), &payment)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, order)
}

func (h *OrderHandler) Return(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var note model.StatusNote
	if err := decodeOptional(r, &note); err != nil {
		httputil.WriteError(w, err)
		return
	}

	order, err := h.service.Return(r.Context(), ps.ByName("id"), &note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, order)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var note model.StatusNote
	if err := decodeOptional(r, &note); err != nil {
		httputil.WriteError(w, err)
		return
	}

	order, err := h.service.Cancel(r.Context(), ps.ByName("id"), &note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, order)
}

// decodeOptional accepts an empty body.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return httputil.DecodeStrict(r, dst)
}

func (h *OrderHandler) RegisterRoutes(router *httprouter.Router, auth *middleware.StaffAuth) {
	router.POST("/api/v1/orders", h.PlaceOrder)
	router.GET("/api/v1/orders", auth.Require(middleware.RoleStaff, h.ListOrders))
	router.GET("/api/v1/orders/:id", h.GetOrder)
	router.GET("/api/v1/my/orders", h.MyOrders)
	router.POST("/api/v1/orders/:id/confirm", middleware.SignedWebhook(h.webhookSecret, h.log, h.Confirm))
	router.POST("/api/v1/orders/:id/return", auth.Require(middleware.RoleStaff, h.Return))
	router.POST("/api/v1/orders/:id/cancel", auth.Require(middleware.RoleStaff, h.Cancel))
}
