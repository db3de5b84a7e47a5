package model

import "time"

// TrendDirection summarizes recent efficiency movement against baseline.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// TrendReport is the per-vehicle rollup over trailing windows.
type TrendReport struct {
	VehicleID           string         `json:"vehicle_id"`
	AvgKmpl30d          float64        `json:"avg_kmpl_30d"`
	AvgKmpl7d           float64        `json:"avg_kmpl_7d"`
	TrendDirection      TrendDirection `json:"trend_direction"`
	NeedsBaselineUpdate bool           `json:"needs_baseline_update"`
	HasBaseline         bool           `json:"has_baseline"`
	BaselineValue       float64        `json:"baseline_value,omitempty"`
}

// CoverageReport is the fleet-wide baseline rollup.
type CoverageReport struct {
	TotalVehicles           int     `json:"total_vehicles"`
	VehiclesWithBaseline    int     `json:"vehicles_with_baseline"`
	VehiclesNeedingUpdate   int     `json:"vehicles_needing_update"`
	AverageConfidenceScore  float64 `json:"average_confidence_score"`
	BaselineCoveragePercent float64 `json:"baseline_coverage_percent"`
}

// EstablishOutcome classifies one vehicle's result in a batch run.
type EstablishOutcome string

const (
	EstablishCreated EstablishOutcome = "created"
	EstablishSkipped EstablishOutcome = "skipped"
	EstablishFailed  EstablishOutcome = "failed"
)

// EstablishResult is the outcome of one vehicle's baseline attempt.
type EstablishResult struct {
	VehicleID string           `json:"vehicle_id"`
	Outcome   EstablishOutcome `json:"outcome"`
	Reason    string           `json:"reason,omitempty"`
}

// EstablishReport aggregates a batch baseline-establishment run.
// The run is idempotent: vehicles whose baseline is already current are
// skipped, so re-running it is always safe.
type EstablishReport struct {
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Created    int               `json:"created"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
	Results    []EstablishResult `json:"results"`
}
