// Package deviation compares a single trip's efficiency against the
// vehicle's stored baseline and grades the result.
package deviation

import (
	"math"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
)

// Severity thresholds on the absolute deviation percentage.
const (
	defaultMediumThreshold = 15.0
	defaultHighThreshold   = 25.0
)

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithSeverityThresholds sets the medium and high severity cut-offs.
func WithSeverityThresholds(medium, high float64) Option {
	return func(c *Classifier) {
		if medium > 0 && high > medium {
			c.mediumThreshold = medium
			c.highThreshold = high
		}
	}
}

// WithInsights toggles advisory insight text on classification results.
func WithInsights(enabled bool) Option {
	return func(c *Classifier) {
		c.insights = enabled
	}
}

// Classifier produces DeviationRecords. Classification is pure: it neither
// persists nor alerts, callers decide what to do with the record.
type Classifier struct {
	mediumThreshold float64
	highThreshold   float64
	insights        bool
}

// NewClassifier creates a classifier with configuration options.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		mediumThreshold: defaultMediumThreshold,
		highThreshold:   defaultHighThreshold,
		insights:        true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify compares one trip against the vehicle's baseline. It returns
// ErrNoBaseline when b is nil or carries a non-positive baseline value.
func (c *Classifier) Classify(sample model.TripSample, b *model.Baseline) (model.DeviationRecord, error) {
	if b == nil || b.BaselineValue <= 0 {
		return model.DeviationRecord{}, ErrNoBaseline
	}

	actual := sample.EfficiencyValue()
	pct := (actual - b.BaselineValue) / b.BaselineValue * 100

	rec := model.DeviationRecord{
		TripID:           sample.TripID,
		VehicleID:        b.VehicleID,
		ActualEfficiency: actual,
		BaselineValue:    b.BaselineValue,
		DeviationPercent: pct,
		DeviationType:    c.band(pct, b),
		Severity:         c.severity(pct),
	}
	if c.insights {
		rec.Insights = Insights(rec.DeviationType)
	}
	return rec, nil
}

// band places the deviation relative to the baseline's tolerance band.
func (c *Classifier) band(pct float64, b *model.Baseline) model.DeviationType {
	switch {
	case pct > b.ToleranceUpperPercent:
		return model.DeviationAboveUpper
	case pct < -b.ToleranceLowerPercent:
		return model.DeviationBelowLower
	default:
		return model.DeviationWithinRange
	}
}

// severity grades |pct| independently of the band direction.
func (c *Classifier) severity(pct float64) model.Severity {
	abs := math.Abs(pct)
	switch {
	case abs >= c.highThreshold:
		return model.SeverityHigh
	case abs >= c.mediumThreshold:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
