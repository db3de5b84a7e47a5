package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fleetsense/fuelwatch/internal/domain/deviation"
	"github.com/fleetsense/fuelwatch/internal/domain/model"
)

// deviationRequest mirrors the POST /deviations body.
type deviationRequest struct {
	TripID       string  `json:"trip_id"`
	VehicleID    string  `json:"vehicle_id"`
	StartDate    string  `json:"start_date"`
	Distance     float64 `json:"distance"`
	FuelQuantity float64 `json:"fuel_quantity"`
	Efficiency   float64 `json:"efficiency"`
}

func (d deviationRequest) validate() error {
	switch {
	case strings.TrimSpace(d.VehicleID) == "":
		return ErrMissingVehicle
	case d.Efficiency <= 0 && (d.Distance <= 0 || d.FuelQuantity <= 0):
		return errors.New("need efficiency or distance and fuel_quantity")
	}
	return nil
}

func (d deviationRequest) sample() model.TripSample {
	s := model.TripSample{
		TripID:       d.TripID,
		VehicleID:    d.VehicleID,
		Distance:     d.Distance,
		FuelQuantity: d.FuelQuantity,
		Efficiency:   d.Efficiency,
	}
	if t, err := time.Parse(time.RFC3339, d.StartDate); err == nil {
		s.StartDate = t
	}
	return s
}

// deviationResponse wraps the record so a missing baseline can be
// reported as a skip instead of an error.
type deviationResponse struct {
	Applicable bool                   `json:"applicable"`
	Record     *model.DeviationRecord `json:"record,omitempty"`
}

// DeviationHandler classifies one trip against the vehicle baseline.
type DeviationHandler struct {
	deps Dependencies
}

// NewDeviationHandler creates a deviation handler.
func NewDeviationHandler(deps Dependencies) *DeviationHandler {
	return &DeviationHandler{deps: deps}
}

// HandleClassify handles POST /api/v1/deviations. A vehicle without a
// baseline yields applicable=false with a 200, matching the engine's
// "expected state, not a fault" contract.
func (h *DeviationHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req deviationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	rec, err := h.deps.ClassifyDeviation(r.Context(), req.sample())
	if err != nil {
		if errors.Is(err, deviation.ErrNoBaseline) {
			writeJSON(w, http.StatusOK, deviationResponse{Applicable: false})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, deviationResponse{Applicable: true, Record: &rec})
}
