package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fleetsense/fuelwatch/internal/adapters/repository"
	"github.com/fleetsense/fuelwatch/internal/domain/baseline"
)

// BaselineHandler serves per-vehicle baseline reads and recomputation.
type BaselineHandler struct {
	deps Dependencies
}

// NewBaselineHandler creates a baseline handler.
func NewBaselineHandler(deps Dependencies) *BaselineHandler {
	return &BaselineHandler{deps: deps}
}

// HandleGet handles GET /api/v1/vehicles/{id}/baseline.
func (h *BaselineHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["id"]
	if vehicleID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingVehicle)
		return
	}

	b, err := h.deps.Baseline(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no_baseline", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleCompute handles POST /api/v1/vehicles/{id}/baseline, recomputing
// the baseline from the vehicle's recorded trips. Too few eligible
// samples is an expected condition and maps to 422, not 500.
func (h *BaselineHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["id"]
	if vehicleID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingVehicle)
		return
	}

	b, err := h.deps.ComputeBaseline(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, baseline.ErrInsufficientSamples) {
			writeError(w, http.StatusUnprocessableEntity, "insufficient_samples", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
