// Package rollup aggregates efficiency trends per vehicle and baseline
// coverage across the fleet.
package rollup

import (
	"math"
	"time"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
)

// Default rollup parameters.
const (
	defaultTrendWindow      = 30 * 24 * time.Hour
	defaultShortTrendWindow = 7 * 24 * time.Hour
	defaultTrendBandPercent = 5.0
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithTrendWindows sets the long and short trailing windows.
func WithTrendWindows(long, short time.Duration) Option {
	return func(a *Aggregator) {
		if long > 0 && short > 0 && short < long {
			a.trendWindow = long
			a.shortTrendWindow = short
		}
	}
}

// WithTrendBand sets the percentage band within which the trend counts as
// stable.
func WithTrendBand(pct float64) Option {
	return func(a *Aggregator) {
		if pct > 0 {
			a.trendBandPercent = pct
		}
	}
}

// WithStaleness sets the staleness rule applied when deciding whether a
// baseline needs recomputation.
func WithStaleness(staleAfter time.Duration, minConfidence int) Option {
	return func(a *Aggregator) {
		if staleAfter > 0 {
			a.staleAfter = staleAfter
		}
		if minConfidence > 0 {
			a.minConfidence = minConfidence
		}
	}
}

// Aggregator computes trend and coverage reports. All methods are pure
// functions over the sequences passed in.
type Aggregator struct {
	trendWindow      time.Duration
	shortTrendWindow time.Duration
	trendBandPercent float64
	staleAfter       time.Duration
	minConfidence    int
}

// NewAggregator creates an aggregator with configuration options.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		trendWindow:      defaultTrendWindow,
		shortTrendWindow: defaultShortTrendWindow,
		trendBandPercent: defaultTrendBandPercent,
		staleAfter:       model.DefaultStaleAfter,
		minConfidence:    model.DefaultMinConfidence,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TrendWindow returns the long trailing window used for per-vehicle reads.
func (a *Aggregator) TrendWindow() time.Duration { return a.trendWindow }

// NeedsUpdate reports whether a vehicle's baseline is absent or stale.
func (a *Aggregator) NeedsUpdate(b *model.Baseline, now time.Time) bool {
	return b == nil || b.Stale(now, a.staleAfter, a.minConfidence)
}

// VehicleTrend rolls up one vehicle's recent samples against its baseline.
// recent should cover the long trend window; b may be nil when the vehicle
// has no baseline yet, in which case the trend is stable by convention.
func (a *Aggregator) VehicleTrend(vehicleID string, recent []model.TripSample, b *model.Baseline, now time.Time) model.TrendReport {
	report := model.TrendReport{
		VehicleID:           vehicleID,
		AvgKmpl30d:          windowMean(recent, now.Add(-a.trendWindow)),
		AvgKmpl7d:           windowMean(recent, now.Add(-a.shortTrendWindow)),
		TrendDirection:      model.TrendStable,
		NeedsBaselineUpdate: a.NeedsUpdate(b, now),
	}
	if b == nil || b.BaselineValue <= 0 {
		return report
	}

	report.HasBaseline = true
	report.BaselineValue = b.BaselineValue
	if report.AvgKmpl30d > 0 {
		pct := (report.AvgKmpl30d - b.BaselineValue) / b.BaselineValue * 100
		if math.Abs(pct) > a.trendBandPercent {
			if pct > 0 {
				report.TrendDirection = model.TrendImproving
			} else {
				report.TrendDirection = model.TrendDeclining
			}
		}
	}
	return report
}

// FleetCoverage rolls up baseline coverage across all vehicles.
// vehicleIDs is the full fleet; baselines maps vehicle id to its current
// baseline for the vehicles that have one.
func (a *Aggregator) FleetCoverage(vehicleIDs []string, baselines map[string]model.Baseline, now time.Time) model.CoverageReport {
	report := model.CoverageReport{TotalVehicles: len(vehicleIDs)}

	var confidenceSum float64
	for _, id := range vehicleIDs {
		b, ok := baselines[id]
		if !ok {
			report.VehiclesNeedingUpdate++
			continue
		}
		report.VehiclesWithBaseline++
		confidenceSum += float64(b.ConfidenceScore)
		if b.Stale(now, a.staleAfter, a.minConfidence) {
			report.VehiclesNeedingUpdate++
		}
	}

	if report.VehiclesWithBaseline > 0 {
		report.AverageConfidenceScore = confidenceSum / float64(report.VehiclesWithBaseline)
	}
	if report.TotalVehicles > 0 {
		report.BaselineCoveragePercent = float64(report.VehiclesWithBaseline) / float64(report.TotalVehicles) * 100
	}
	return report
}

// windowMean is the plain arithmetic mean of eligible efficiencies at or
// after cutoff, 0 when the window is empty.
func windowMean(samples []model.TripSample, cutoff time.Time) float64 {
	var sum float64
	var n int
	for _, s := range samples {
		if s.StartDate.Before(cutoff) || !s.Eligible() {
			continue
		}
		sum += s.EfficiencyValue()
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
