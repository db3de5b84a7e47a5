package model

import "time"

// Default baseline parameters. These mirror the config defaults; the
// estimator and rollup take their own copies via options.
const (
	DefaultTolerancePercent = 15.0
	DefaultStaleAfter       = 90 * 24 * time.Hour
	DefaultMinConfidence    = 60
)

// DataRange describes the sample window a baseline was computed from.
// Informational, not authoritative.
type DataRange struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	TotalDistance float64   `json:"total_distance"`
	TotalFuel     float64   `json:"total_fuel"`
	TripCount     int       `json:"trip_count"`
}

// Baseline is the persisted expected-efficiency record for one vehicle.
// It is overwritten wholesale on recomputation, never partially mutated.
type Baseline struct {
	VehicleID             string    `json:"vehicle_id"`
	BaselineValue         float64   `json:"baseline_value"` // rounded to 2 decimal places
	SampleSize            int       `json:"sample_size"`
	ConfidenceScore       int       `json:"confidence_score"` // 0-100
	ToleranceUpperPercent float64   `json:"tolerance_upper_percent"`
	ToleranceLowerPercent float64   `json:"tolerance_lower_percent"`
	ComputedAt            time.Time `json:"computed_at"`
	LastUpdated           time.Time `json:"last_updated"`
	DataRange             DataRange `json:"data_range"`
}

// Stale reports whether the baseline should be recomputed: either it has
// aged past staleAfter or its confidence never reached minConfidence.
func (b Baseline) Stale(now time.Time, staleAfter time.Duration, minConfidence int) bool {
	if b.ConfidenceScore < minConfidence {
		return true
	}
	return now.Sub(b.LastUpdated) > staleAfter
}
