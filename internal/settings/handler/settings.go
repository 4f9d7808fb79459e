package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"smartrentals/internal/settings/service"
	apperrors "smartrentals/pkg/errors"
	httputil "smartrentals/pkg/http"
	"smartrentals/pkg/logger"
	"smartrentals/pkg/middleware"
	"smartrentals/pkg/model"
	"time"

	"github.com/julienschmidt/httprouter"
)

const (
	SyncPath = "/api/v1/settings/sync"

	EventConnected = "connected"
	EventUpdated   = "settings_updated"

	DefaultHeartbeat = 25 * time.Second
)

type SettingsHandler struct {
	provider  service.Provider
	broker    *service.Broker
	log       *logger.Logger
	heartbeat time.Duration
}

func NewSettingsHandler(provider service.Provider, broker *service.Broker, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		provider:  provider,
		broker:    broker,
		log:       log,
		heartbeat: DefaultHeartbeat,
	}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, err := h.provider.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, s)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var s model.Settings
	if err := httputil.DecodeStrict(r, &s); err != nil {
		httputil.WriteError(w, err)
		return
	}

	saved, err := h.provider.Update(r.Context(), &s)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, saved)
}

// Export returns the bare settings document as a download, in the form
// Import accepts.
func (h *SettingsHandler) Export(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, err := h.provider.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="settings-%s.json"`, time.Now().UTC().Format("20060102")))
	httputil.WriteJSON(w, http.StatusOK, s)
}

func (h *SettingsHandler) Import(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("could not read request body"))
		return
	}

	saved, err := h.provider.Import(r.Context(), data)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, saved)
}

// Sync streams settings as Server-Sent Events: the current settings as a
// "connected" event, then one "settings_updated" event per change until the
// client goes away.
func (h *SettingsHandler) Sync(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	current, err := h.provider.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	id, updates := h.broker.Subscribe()
	defer h.broker.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	log := h.log.WithContext(r.Context())
	log.Info("Settings subscriber connected", "subscriber", id)
	defer log.Info("Settings subscriber disconnected", "subscriber", id)

	if err := writeEvent(w, rc, EventConnected, current); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, rc, EventUpdated, s); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, rc *http.ResponseController, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return rc.Flush()
}

func (h *SettingsHandler) RegisterRoutes(router *httprouter.Router, auth *middleware.StaffAuth) {
	router.GET("/api/v1/settings", h.Get)
	router.PUT("/api/v1/settings", auth.Require(middleware.RoleStaff, h.Update))
	router.GET("/api/v1/settings/export", h.Export)
	router.POST("/api/v1/settings/import", auth.Require(middleware.RoleStaff, h.Import))
	router.GET(SyncPath, h.Sync)
}
