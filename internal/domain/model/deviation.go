package model

// DeviationType places a trip relative to the baseline tolerance band.
type DeviationType string

const (
	DeviationAboveUpper  DeviationType = "above_upper"
	DeviationBelowLower  DeviationType = "below_lower"
	DeviationWithinRange DeviationType = "within_range"
)

// Severity grades the magnitude of a deviation, independent of its sign.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DeviationRecord is the per-trip comparison result. It is ephemeral:
// callers decide whether to persist or alert on it.
type DeviationRecord struct {
	TripID           string        `json:"trip_id"`
	VehicleID        string        `json:"vehicle_id"`
	ActualEfficiency float64       `json:"actual_efficiency"`
	BaselineValue    float64       `json:"baseline_value"`
	DeviationPercent float64       `json:"deviation_percent"`
	DeviationType    DeviationType `json:"deviation_type"`
	Severity         Severity      `json:"severity"`
	Insights         []string      `json:"insights,omitempty"`
}
