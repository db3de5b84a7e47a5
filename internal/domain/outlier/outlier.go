// Package outlier removes statistically extreme efficiency samples from a
// trip sample set using an interquartile-range fence.
package outlier

import (
	"sort"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
)

// Default fence configuration.
const (
	defaultFenceMultiplier = 1.5
)

// Fence holds the inclusive bounds derived from the quartiles of a sample
// set. Samples with efficiency outside [Lower, Upper] are outliers.
type Fence struct {
	Q1    float64
	Q3    float64
	Lower float64
	Upper float64
}

// Contains reports whether an efficiency value lies within the fence.
func (f Fence) Contains(efficiency float64) bool {
	return efficiency >= f.Lower && efficiency <= f.Upper
}

// Filter retains the samples whose efficiency falls within the IQR fence
// of the whole set. Ineligible samples are dropped before fencing. The
// input slice is not modified and relative order is preserved.
//
// Quartiles are taken at floor(n*0.25) and floor(n*0.75) of the sorted
// values (nearest rank by index, not interpolated). Switching to an
// interpolated quantile would silently change which trips count as
// outliers, so the index rule is kept as-is.
func Filter(samples []model.TripSample) ([]model.TripSample, Fence) {
	eligible := make([]model.TripSample, 0, len(samples))
	for _, s := range samples {
		if s.Eligible() {
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 {
		return eligible, Fence{}
	}

	fence := FenceOf(eligible)
	kept := make([]model.TripSample, 0, len(eligible))
	for _, s := range eligible {
		if fence.Contains(s.EfficiencyValue()) {
			kept = append(kept, s)
		}
	}
	return kept, fence
}

// FenceOf computes the IQR fence over the efficiencies of samples.
// Callers must pass at least one sample.
func FenceOf(samples []model.TripSample) Fence {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.EfficiencyValue()
	}
	sort.Float64s(values)

	n := len(values)
	q1 := values[int(float64(n)*0.25)]
	q3 := values[int(float64(n)*0.75)]
	iqr := q3 - q1

	return Fence{
		Q1:    q1,
		Q3:    q3,
		Lower: q1 - defaultFenceMultiplier*iqr,
		Upper: q3 + defaultFenceMultiplier*iqr,
	}
}
