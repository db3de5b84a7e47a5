package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// TrendHandler serves per-vehicle trend rollups.
type TrendHandler struct {
	deps Dependencies
}

// NewTrendHandler creates a trend handler.
func NewTrendHandler(deps Dependencies) *TrendHandler {
	return &TrendHandler{deps: deps}
}

// HandleTrend handles GET /api/v1/vehicles/{id}/trend.
func (h *TrendHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["id"]
	if vehicleID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingVehicle)
		return
	}

	report, err := h.deps.VehicleTrend(r.Context(), vehicleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
