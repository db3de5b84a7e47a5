// Package api declares HTTP contracts and route registration for the
// baseline service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
)

// Dependencies required by HTTP handlers. The interface bundle keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	IngestTrips(ctx context.Context, samples []model.TripSample) error
	ComputeBaseline(ctx context.Context, vehicleID string) (model.Baseline, error)
	Baseline(ctx context.Context, vehicleID string) (model.Baseline, error)
	ClassifyDeviation(ctx context.Context, sample model.TripSample) (model.DeviationRecord, error)
	VehicleTrend(ctx context.Context, vehicleID string) (model.TrendReport, error)
	FleetCoverage(ctx context.Context) (model.CoverageReport, error)
	EstablishBaselines(ctx context.Context) (model.EstablishReport, error)
}

// StatsProvider exposes service statistics for /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the baseline API.
type Server struct {
	router *mux.Router
}

// NewServer creates the API server and registers all routes.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	s := &Server{router: mux.NewRouter()}

	health := NewHealthHandler()
	stats := NewStatsHandler(statsProvider)
	trips := NewTripsHandler(deps)
	baselines := NewBaselineHandler(deps)
	deviations := NewDeviationHandler(deps)
	trend := NewTrendHandler(deps)
	fleet := NewFleetHandler(deps)

	s.router.HandleFunc("/healthz", MetricsMiddleware(health.HandleHealth, "healthz")).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", MetricsMiddleware(stats.HandleStats, "stats")).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/trips", MetricsMiddleware(trips.HandleIngest, "trips")).Methods(http.MethodPost)
	v1.HandleFunc("/vehicles/{id}/baseline", MetricsMiddleware(baselines.HandleGet, "baseline_get")).Methods(http.MethodGet)
	v1.HandleFunc("/vehicles/{id}/baseline", MetricsMiddleware(baselines.HandleCompute, "baseline_compute")).Methods(http.MethodPost)
	v1.HandleFunc("/vehicles/{id}/trend", MetricsMiddleware(trend.HandleTrend, "trend")).Methods(http.MethodGet)
	v1.HandleFunc("/deviations", MetricsMiddleware(deviations.HandleClassify, "deviations")).Methods(http.MethodPost)
	v1.HandleFunc("/fleet/coverage", MetricsMiddleware(fleet.HandleCoverage, "coverage")).Methods(http.MethodGet)
	v1.HandleFunc("/fleet/baselines", MetricsMiddleware(fleet.HandleEstablish, "establish")).Methods(http.MethodPost)

	return s
}

// Router returns the configured router.
func (s *Server) Router() *mux.Router { return s.router }

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
