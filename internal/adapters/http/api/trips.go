package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
)

// tripRequest mirrors one trip record in the POST /trips body.
type tripRequest struct {
	TripID       string  `json:"trip_id"`
	VehicleID    string  `json:"vehicle_id"`
	StartDate    string  `json:"start_date"`
	Distance     float64 `json:"distance"`
	FuelQuantity float64 `json:"fuel_quantity"`
	Efficiency   float64 `json:"efficiency"`
}

func (t tripRequest) validate() error {
	switch {
	case strings.TrimSpace(t.TripID) == "":
		return ErrBadRequest
	case strings.TrimSpace(t.VehicleID) == "":
		return ErrMissingVehicle
	case strings.TrimSpace(t.StartDate) == "":
		return ErrBadRequest
	}
	if _, err := time.Parse(time.RFC3339, t.StartDate); err != nil {
		return ErrBadRequest
	}
	return nil
}

type ingestResponse struct {
	Accepted int `json:"accepted"`
}

// TripsHandler accepts trip records into the trip log.
type TripsHandler struct {
	deps Dependencies
}

// NewTripsHandler creates a trips handler.
func NewTripsHandler(deps Dependencies) *TripsHandler {
	return &TripsHandler{deps: deps}
}

// HandleIngest handles POST /api/v1/trips with a JSON array body.
// Structurally valid records with nonsensical numbers are accepted; the
// engine excludes them at computation time.
func (h *TripsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var reqs []tripRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrEmptyBody)
		return
	}

	samples := make([]model.TripSample, 0, len(reqs))
	for _, req := range reqs {
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		start, _ := time.Parse(time.RFC3339, req.StartDate)
		samples = append(samples, model.TripSample{
			TripID:       req.TripID,
			VehicleID:    req.VehicleID,
			StartDate:    start,
			Distance:     req.Distance,
			FuelQuantity: req.FuelQuantity,
			Efficiency:   req.Efficiency,
		})
	}

	if err := h.deps.IngestTrips(r.Context(), samples); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusAccepted, ingestResponse{Accepted: len(samples)})
}
