package handler

import (
	"net/http"
	"smartrentals/internal/reports/service"
	httputil "smartrentals/pkg/http"
	"smartrentals/pkg/middleware"
	"time"

	"github.com/julienschmidt/httprouter"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(service service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) UpcomingReservations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start, end, err := window(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reservations, err := h.service.UpcomingReservations(r.Context(), start, end)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, reservations)
}

func (h *ReportHandler) Utilization(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start, end, err := window(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.Utilization(r.Context(), start, end)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, report)
}

func (h *ReportHandler) LateReturns(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	late, err := h.service.LateReturns(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, late)
}

// window reads the optional start and end query parameters.
func window(r *http.Request) (time.Time, time.Time, error) {
	start, err := httputil.ExtractTime(r, "start")
	if err != nil {
		return start, time.Time{}, err
	}
	end, err := httputil.ExtractTime(r, "end")
	return start, end, err
}

func (h *ReportHandler) RegisterRoutes(router *httprouter.Router, auth *middleware.StaffAuth) {
	router.GET("/api/v1/reports/upcoming-reservations", auth.Require(middleware.RoleStaff, h.UpcomingReservations))
	router.GET("/api/v1/reports/utilization", auth.Require(middleware.RoleStaff, h.Utilization))
	router.GET("/api/v1/reports/late-returns", auth.Require(middleware.RoleStaff, h.LateReturns))
}
