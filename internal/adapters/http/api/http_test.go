package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fleetsense/fuelwatch/internal/adapters/http/api"
	"github.com/fleetsense/fuelwatch/internal/adapters/repository"
	"github.com/fleetsense/fuelwatch/internal/domain/baseline"
	"github.com/fleetsense/fuelwatch/internal/domain/deviation"
	"github.com/fleetsense/fuelwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// stubService fakes the service layer behind the handlers.
type stubService struct {
	baselines map[string]model.Baseline
	ingested  []model.TripSample

	computeErr  error
	classifyErr error
	trendErr    error
	coverageErr error
}

func newStubService() *stubService {
	return &stubService{baselines: make(map[string]model.Baseline)}
}

func (s *stubService) IngestTrips(_ context.Context, samples []model.TripSample) error {
	s.ingested = append(s.ingested, samples...)
	return nil
}

func (s *stubService) ComputeBaseline(_ context.Context, vehicleID string) (model.Baseline, error) {
	if s.computeErr != nil {
		return model.Baseline{}, s.computeErr
	}
	b := model.Baseline{VehicleID: vehicleID, BaselineValue: 8.5, SampleSize: 12, ConfidenceScore: 70}
	s.baselines[vehicleID] = b
	return b, nil
}

func (s *stubService) Baseline(_ context.Context, vehicleID string) (model.Baseline, error) {
	b, ok := s.baselines[vehicleID]
	if !ok {
		return model.Baseline{}, fmt.Errorf("baseline get for vehicle %s: %w", vehicleID, repository.ErrNotFound)
	}
	return b, nil
}

func (s *stubService) ClassifyDeviation(_ context.Context, sample model.TripSample) (model.DeviationRecord, error) {
	if s.classifyErr != nil {
		return model.DeviationRecord{}, s.classifyErr
	}
	return model.DeviationRecord{
		TripID:           sample.TripID,
		VehicleID:        sample.VehicleID,
		DeviationPercent: -20,
		DeviationType:    model.DeviationBelowLower,
		Severity:         model.SeverityMedium,
	}, nil
}

func (s *stubService) VehicleTrend(_ context.Context, vehicleID string) (model.TrendReport, error) {
	if s.trendErr != nil {
		return model.TrendReport{}, s.trendErr
	}
	return model.TrendReport{VehicleID: vehicleID, TrendDirection: model.TrendStable}, nil
}

func (s *stubService) FleetCoverage(_ context.Context) (model.CoverageReport, error) {
	if s.coverageErr != nil {
		return model.CoverageReport{}, s.coverageErr
	}
	return model.CoverageReport{TotalVehicles: 10, VehiclesWithBaseline: 6, BaselineCoveragePercent: 60}, nil
}

func (s *stubService) EstablishBaselines(_ context.Context) (model.EstablishReport, error) {
	return model.EstablishReport{Created: 3, Skipped: 2, Failed: 1}, nil
}

func (s *stubService) GetStats() map[string]interface{} {
	return map[string]interface{}{"baseline_count": len(s.baselines)}
}

func serve(svc *stubService, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	api.NewServer(svc, svc).Router().ServeHTTP(rec, req)
	return rec
}

func validTrip(tripID string) map[string]any {
	return map[string]any{
		"trip_id":       tripID,
		"vehicle_id":    "VEH-001",
		"start_date":    time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"distance":      100.0,
		"fuel_quantity": 12.5,
	}
}

func TestTripIngestEndpoint(t *testing.T) {
	Convey("Given the trips endpoint", t, func() {
		svc := newStubService()

		Convey("When a valid batch is posted", func() {
			rec := serve(svc, http.MethodPost, "/api/v1/trips", []map[string]any{
				validTrip("trip-1"), validTrip("trip-2"),
			})

			Convey("Then the batch is accepted", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(len(svc.ingested), ShouldEqual, 2)

				var resp map[string]int
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["accepted"], ShouldEqual, 2)
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/trips", bytes.NewBufferString("not json"))
			rec := httptest.NewRecorder()
			api.NewServer(svc, svc).Router().ServeHTTP(rec, req)

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the array is empty", func() {
			rec := serve(svc, http.MethodPost, "/api/v1/trips", []map[string]any{})

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a record is missing its trip id", func() {
			bad := validTrip("")
			rec := serve(svc, http.MethodPost, "/api/v1/trips", []map[string]any{bad})

			Convey("Then nothing is ingested", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(len(svc.ingested), ShouldEqual, 0)
			})
		})

		Convey("When a record carries an unparseable date", func() {
			bad := validTrip("trip-1")
			bad["start_date"] = "yesterday"
			rec := serve(svc, http.MethodPost, "/api/v1/trips", []map[string]any{bad})

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestBaselineEndpoints(t *testing.T) {
	Convey("Given the baseline endpoints", t, func() {
		svc := newStubService()

		Convey("When reading a vehicle with no baseline", func() {
			rec := serve(svc, http.MethodGet, "/api/v1/vehicles/VEH-404/baseline", nil)

			Convey("Then the response is a 404 with a no_baseline code", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)

				var resp map[string]string
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["code"], ShouldEqual, "no_baseline")
			})
		})

		Convey("When computing then reading a baseline", func() {
			post := serve(svc, http.MethodPost, "/api/v1/vehicles/VEH-001/baseline", nil)
			get := serve(svc, http.MethodGet, "/api/v1/vehicles/VEH-001/baseline", nil)

			Convey("Then both succeed with the stored record", func() {
				So(post.Code, ShouldEqual, http.StatusOK)
				So(get.Code, ShouldEqual, http.StatusOK)

				var b model.Baseline
				So(json.Unmarshal(get.Body.Bytes(), &b), ShouldBeNil)
				So(b.VehicleID, ShouldEqual, "VEH-001")
				So(b.BaselineValue, ShouldEqual, 8.5)
			})
		})

		Convey("When computation lacks enough samples", func() {
			svc.computeErr = fmt.Errorf("vehicle VEH-001: 4 of 5 samples eligible, need 10: %w", baseline.ErrInsufficientSamples)
			rec := serve(svc, http.MethodPost, "/api/v1/vehicles/VEH-001/baseline", nil)

			Convey("Then the response is 422, not 500", func() {
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)

				var resp map[string]string
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["code"], ShouldEqual, "insufficient_samples")
			})
		})

		Convey("When computation fails unexpectedly", func() {
			svc.computeErr = fmt.Errorf("disk full")
			rec := serve(svc, http.MethodPost, "/api/v1/vehicles/VEH-001/baseline", nil)

			Convey("Then the response is a 500", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestDeviationEndpoint(t *testing.T) {
	Convey("Given the deviations endpoint", t, func() {
		svc := newStubService()

		body := map[string]any{
			"trip_id":    "trip-1",
			"vehicle_id": "VEH-001",
			"efficiency": 6.8,
		}

		Convey("When the vehicle has a baseline", func() {
			rec := serve(svc, http.MethodPost, "/api/v1/deviations", body)

			Convey("Then the record is returned as applicable", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					Applicable bool                   `json:"applicable"`
					Record     *model.DeviationRecord `json:"record"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Applicable, ShouldBeTrue)
				So(resp.Record, ShouldNotBeNil)
				So(resp.Record.Severity, ShouldEqual, model.SeverityMedium)
			})
		})

		Convey("When the vehicle has no baseline", func() {
			svc.classifyErr = fmt.Errorf("vehicle VEH-001: %w", deviation.ErrNoBaseline)
			rec := serve(svc, http.MethodPost, "/api/v1/deviations", body)

			Convey("Then the response is 200 with applicable=false", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					Applicable bool                   `json:"applicable"`
					Record     *model.DeviationRecord `json:"record"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Applicable, ShouldBeFalse)
				So(resp.Record, ShouldBeNil)
			})
		})

		Convey("When the request has neither efficiency nor distance and fuel", func() {
			rec := serve(svc, http.MethodPost, "/api/v1/deviations", map[string]any{
				"trip_id": "trip-1", "vehicle_id": "VEH-001",
			})

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the vehicle id is missing", func() {
			rec := serve(svc, http.MethodPost, "/api/v1/deviations", map[string]any{
				"trip_id": "trip-1", "efficiency": 8.0,
			})

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestRollupEndpoints(t *testing.T) {
	Convey("Given the rollup endpoints", t, func() {
		svc := newStubService()

		Convey("When reading a vehicle trend", func() {
			rec := serve(svc, http.MethodGet, "/api/v1/vehicles/VEH-001/trend", nil)

			Convey("Then the report is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var report model.TrendReport
				So(json.Unmarshal(rec.Body.Bytes(), &report), ShouldBeNil)
				So(report.VehicleID, ShouldEqual, "VEH-001")
				So(report.TrendDirection, ShouldEqual, model.TrendStable)
			})
		})

		Convey("When reading fleet coverage", func() {
			rec := serve(svc, http.MethodGet, "/api/v1/fleet/coverage", nil)

			Convey("Then the rollup is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var report model.CoverageReport
				So(json.Unmarshal(rec.Body.Bytes(), &report), ShouldBeNil)
				So(report.BaselineCoveragePercent, ShouldEqual, 60)
			})
		})

		Convey("When triggering batch establishment", func() {
			rec := serve(svc, http.MethodPost, "/api/v1/fleet/baselines", nil)

			Convey("Then the batch report is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var report model.EstablishReport
				So(json.Unmarshal(rec.Body.Bytes(), &report), ShouldBeNil)
				So(report.Created, ShouldEqual, 3)
				So(report.Failed, ShouldEqual, 1)
			})
		})

		Convey("When the coverage rollup fails", func() {
			svc.coverageErr = fmt.Errorf("store unavailable")
			rec := serve(svc, http.MethodGet, "/api/v1/fleet/coverage", nil)

			Convey("Then the response is a 500", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		svc := newStubService()

		Convey("When probing /healthz", func() {
			rec := serve(svc, http.MethodGet, "/healthz", nil)

			Convey("Then the service reports healthy", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When reading /stats", func() {
			rec := serve(svc, http.MethodGet, "/stats", nil)

			Convey("Then service statistics are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var stats map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
				So(stats, ShouldContainKey, "baseline_count")
			})
		})

		Convey("When using an unsupported method", func() {
			rec := serve(svc, http.MethodDelete, "/api/v1/trips", nil)

			Convey("Then the router rejects it", func() {
				So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}
