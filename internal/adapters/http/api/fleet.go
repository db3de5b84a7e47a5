package api

import "net/http"

// FleetHandler serves fleet-wide rollups and batch establishment.
type FleetHandler struct {
	deps Dependencies
}

// NewFleetHandler creates a fleet handler.
func NewFleetHandler(deps Dependencies) *FleetHandler {
	return &FleetHandler{deps: deps}
}

// HandleCoverage handles GET /api/v1/fleet/coverage.
func (h *FleetHandler) HandleCoverage(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.FleetCoverage(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleEstablish handles POST /api/v1/fleet/baselines, running batch
// baseline establishment synchronously and returning the full report.
// The run is idempotent, so retrying a timed-out request is safe.
func (h *FleetHandler) HandleEstablish(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.EstablishBaselines(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
