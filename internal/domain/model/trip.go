// Package model contains domain models passed between layers.
package model

import "time"

// TripSample is one historical trip used for baseline math.
// It is a read-only snapshot; the engine never mutates trip records.
type TripSample struct {
	TripID       string    `json:"trip_id"`
	VehicleID    string    `json:"vehicle_id"`
	StartDate    time.Time `json:"start_date"`
	Distance     float64   `json:"distance"`      // end odometer - start odometer, km
	FuelQuantity float64   `json:"fuel_quantity"` // liters or equivalent
	Efficiency   float64   `json:"efficiency"`    // km per fuel unit; derived when zero
}

// EfficiencyValue returns the stored efficiency, deriving it from distance
// and fuel quantity when the record carries none.
func (s TripSample) EfficiencyValue() float64 {
	if s.Efficiency > 0 {
		return s.Efficiency
	}
	if s.FuelQuantity > 0 {
		return s.Distance / s.FuelQuantity
	}
	return 0
}

// Eligible reports whether the sample may participate in baseline math.
// Malformed records are excluded here rather than treated as errors.
func (s TripSample) Eligible() bool {
	return s.Distance > 0 && s.FuelQuantity > 0 && s.EfficiencyValue() > 0
}
