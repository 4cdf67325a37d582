package analytics_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olumuyiwaa/afrohub-backend/internal/analytics"
	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
)

// Handler exposes the sales analytics endpoints.
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes mounts the analytics routes on an already-authenticated
// router group.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/summary", h.GetPlatformSummary)
		r.Get("/events/{ticketId}", h.GetEventSales)
	})
}

func (h *Handler) GetPlatformSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.GetPlatformSummary(r.Context())
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to compute platform summary: %v", err))
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute summary"})
		return
	}
	sendJSONResponse(w, http.StatusOK, summary)
}

func (h *Handler) GetEventSales(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	sales, err := h.Service.GetEventSales(r.Context(), ticketID)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to compute sales for event %s: %v", ticketID, err))
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute event sales"})
		return
	}
	sendJSONResponse(w, http.StatusOK, sales)
}

func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
