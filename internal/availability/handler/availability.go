package handler

import (
	"net/http"
	"smartrentals/internal/availability/service"
	httputil "smartrentals/pkg/http"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/middleware"
	"time"

	"github.com/julienschmidt/httprouter"
)

type QuoteRequest struct {
	ProductID string    `json:"product_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) AvailableUnits(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	start, err := httputil.ExtractRequiredTime(r, "start")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	end, err := httputil.ExtractRequiredTime(r, "end")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	units, err := h.service.AvailableUnits(r.Context(), ps.ByName("id"), start, end)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, units)
}

func (h *AvailabilityHandler) Quote(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req QuoteRequest
	if err := httputil.DecodeStrict(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	quote, err := h.service.Quote(r.Context(), req.ProductID, req.Start.UTC(), req.End.UTC())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, quote)
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router, _ *middleware.StaffAuth) {
	router.GET("/api/v1/availability/products/:id", h.AvailableUnits)
	router.POST("/api/v1/availability/quote", h.Quote)
}
