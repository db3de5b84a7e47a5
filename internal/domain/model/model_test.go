package model_test

import (
	"testing"
	"time"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTripSample(t *testing.T) {
	Convey("Given a trip with a stored efficiency", t, func() {
		s := model.TripSample{Distance: 100, FuelQuantity: 12, Efficiency: 8.5}

		Convey("Then the stored value wins over derivation", func() {
			So(s.EfficiencyValue(), ShouldEqual, 8.5)
			So(s.Eligible(), ShouldBeTrue)
		})
	})

	Convey("Given a trip without a stored efficiency", t, func() {
		s := model.TripSample{Distance: 120, FuelQuantity: 15}

		Convey("Then efficiency derives from distance over fuel", func() {
			So(s.EfficiencyValue(), ShouldEqual, 8.0)
			So(s.Eligible(), ShouldBeTrue)
		})
	})

	Convey("Given malformed trips", t, func() {
		cases := map[string]model.TripSample{
			"zero distance":     {Distance: 0, FuelQuantity: 10},
			"zero fuel":         {Distance: 100, FuelQuantity: 0},
			"negative distance": {Distance: -50, FuelQuantity: 10},
			"negative fuel":     {Distance: 100, FuelQuantity: -5},
		}

		for name, s := range cases {
			Convey("Then a trip with "+name+" is ineligible", func() {
				So(s.Eligible(), ShouldBeFalse)
			})
		}
	})

	Convey("Given a trip with no fuel and no stored efficiency", t, func() {
		s := model.TripSample{Distance: 100}

		Convey("Then the value is zero, not a division panic", func() {
			So(s.EfficiencyValue(), ShouldEqual, 0)
		})
	})
}

func TestBaselineStale(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given a fresh, confident baseline", t, func() {
		b := model.Baseline{ConfidenceScore: 80, LastUpdated: now.AddDate(0, 0, -30)}

		Convey("Then it is not stale", func() {
			So(b.Stale(now, model.DefaultStaleAfter, model.DefaultMinConfidence), ShouldBeFalse)
		})
	})

	Convey("Given a baseline last updated 91 days ago", t, func() {
		b := model.Baseline{ConfidenceScore: 80, LastUpdated: now.AddDate(0, 0, -91)}

		Convey("Then age makes it stale", func() {
			So(b.Stale(now, model.DefaultStaleAfter, model.DefaultMinConfidence), ShouldBeTrue)
		})
	})

	Convey("Given a baseline updated exactly 90 days ago", t, func() {
		b := model.Baseline{ConfidenceScore: 80, LastUpdated: now.Add(-model.DefaultStaleAfter)}

		Convey("Then the boundary is not yet stale", func() {
			So(b.Stale(now, model.DefaultStaleAfter, model.DefaultMinConfidence), ShouldBeFalse)
		})
	})

	Convey("Given a fresh baseline below the confidence floor", t, func() {
		b := model.Baseline{ConfidenceScore: 45, LastUpdated: now}

		Convey("Then low confidence alone makes it stale", func() {
			So(b.Stale(now, model.DefaultStaleAfter, model.DefaultMinConfidence), ShouldBeTrue)
		})
	})
}
