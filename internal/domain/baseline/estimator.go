// Package baseline computes a vehicle's representative fuel-efficiency
// value and a confidence score from its filtered trip history.
package baseline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
	"github.com/fleetsense/fuelwatch/internal/domain/outlier"
)

// Default estimation parameters.
const (
	defaultMinSamples       = 10
	defaultTolerancePercent = 15.0
	defaultRecencyRamp      = 0.2  // most recent sample weighs up to 20% more
	defaultCoVCap           = 0.30 // consistency score is zero at this CoV
	defaultSampleScoreCap   = 30   // sample score saturates at this many samples
	maxComponentScore       = 50.0
)

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithMinSamples sets the minimum number of post-filter samples required.
func WithMinSamples(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.minSamples = n
		}
	}
}

// WithTolerancePercent sets the symmetric tolerance band written into
// computed baselines.
func WithTolerancePercent(pct float64) Option {
	return func(e *Estimator) {
		if pct > 0 {
			e.tolerancePercent = pct
		}
	}
}

// WithRecencyRamp sets the linear weight ramp applied across the sample
// window, oldest to newest.
func WithRecencyRamp(ramp float64) Option {
	return func(e *Estimator) {
		if ramp >= 0 {
			e.recencyRamp = ramp
		}
	}
}

// WithClock sets the time source, used by tests for deterministic stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		if now != nil {
			e.now = now
		}
	}
}

// Estimator turns a vehicle's trip samples into a Baseline. Compute is a
// pure function of its inputs apart from the timestamp stamps.
type Estimator struct {
	minSamples       int
	tolerancePercent float64
	recencyRamp      float64
	covCap           float64
	sampleScoreCap   int
	now              func() time.Time
}

// NewEstimator creates an estimator with configuration options.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		minSamples:       defaultMinSamples,
		tolerancePercent: defaultTolerancePercent,
		recencyRamp:      defaultRecencyRamp,
		covCap:           defaultCoVCap,
		sampleScoreCap:   defaultSampleScoreCap,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MinSamples returns the configured minimum sample count.
func (e *Estimator) MinSamples() int { return e.minSamples }

// Compute filters outliers from samples and produces the vehicle's
// baseline. It returns ErrInsufficientSamples when fewer than the minimum
// eligible samples remain after filtering.
func (e *Estimator) Compute(vehicleID string, samples []model.TripSample) (model.Baseline, error) {
	kept, _ := outlier.Filter(samples)
	if len(kept) < e.minSamples {
		return model.Baseline{}, fmt.Errorf("vehicle %s: %d of %d samples eligible, need %d: %w",
			vehicleID, len(kept), len(samples), e.minSamples, ErrInsufficientSamples)
	}

	// Oldest first so the recency ramp favors later trips.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].StartDate.Before(kept[j].StartDate)
	})

	value := e.weightedMean(kept)
	cov := coefficientOfVariation(kept, value)
	confidence := e.confidence(len(kept), cov)

	now := e.now().UTC()
	return model.Baseline{
		VehicleID:             vehicleID,
		BaselineValue:         round2(value),
		SampleSize:            len(kept),
		ConfidenceScore:       confidence,
		ToleranceUpperPercent: e.tolerancePercent,
		ToleranceLowerPercent: e.tolerancePercent,
		ComputedAt:            now,
		LastUpdated:           now,
		DataRange:             dataRange(kept),
	}, nil
}

// weightedMean computes the recency-weighted arithmetic mean of
// efficiency. Sample i of N carries weight 1 + (i/N)*ramp.
func (e *Estimator) weightedMean(samples []model.TripSample) float64 {
	n := float64(len(samples))
	var sum, weightSum float64
	for i, s := range samples {
		w := 1 + (float64(i)/n)*e.recencyRamp
		sum += s.EfficiencyValue() * w
		weightSum += w
	}
	return sum / weightSum
}

// confidence combines a sample-size score and a consistency score, each
// capped at 50, into a 0-100 integer.
func (e *Estimator) confidence(sampleCount int, cov float64) int {
	sampleScore := math.Min(float64(sampleCount)/float64(e.sampleScoreCap), 1) * maxComponentScore
	consistencyScore := math.Max(0, (e.covCap-cov)/e.covCap) * maxComponentScore
	return int(math.Round(sampleScore + consistencyScore))
}

// coefficientOfVariation is the unweighted population standard deviation
// of efficiency around mean, divided by mean.
func coefficientOfVariation(samples []model.TripSample, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, s := range samples {
		d := s.EfficiencyValue() - mean
		sq += d * d
	}
	variance := sq / float64(len(samples))
	return math.Sqrt(variance) / mean
}

func dataRange(samples []model.TripSample) model.DataRange {
	r := model.DataRange{
		Start:     samples[0].StartDate,
		End:       samples[len(samples)-1].StartDate,
		TripCount: len(samples),
	}
	for _, s := range samples {
		r.TotalDistance += s.Distance
		r.TotalFuel += s.FuelQuantity
	}
	return r
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
