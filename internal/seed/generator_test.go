package seed_test

import (
	"context"
	"testing"
	"time"

	"github.com/fleetsense/fuelwatch/internal/adapters/tripstore"
	"github.com/fleetsense/fuelwatch/internal/seed"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a generator with default parameters", t, func() {
		gen := seed.NewGenerator()
		log := tripstore.NewMemLog()

		Convey("When the fleet is generated", func() {
			ids, err := gen.Generate(ctx, log)

			Convey("Then ten vehicles exist with forty trips each", func() {
				So(err, ShouldBeNil)
				So(len(ids), ShouldEqual, 10)
				So(ids[0], ShouldEqual, "VEH-001")
				So(ids[9], ShouldEqual, "VEH-010")

				for _, id := range ids {
					trips, err := log.Samples(ctx, id, time.Time{})
					So(err, ShouldBeNil)
					So(len(trips), ShouldEqual, 40)
				}
			})

			Convey("And every trip is well formed", func() {
				So(err, ShouldBeNil)
				trips, err := log.Samples(ctx, "VEH-001", time.Time{})
				So(err, ShouldBeNil)
				for _, s := range trips {
					So(s.TripID, ShouldNotBeEmpty)
					So(s.Distance, ShouldBeGreaterThan, 0)
					So(s.FuelQuantity, ShouldBeGreaterThan, 0)
					So(s.Eligible(), ShouldBeTrue)
				}
			})
		})
	})

	Convey("Given two generators with the same seed", t, func() {
		first := seed.NewGenerator(seed.WithSeed(7), seed.WithVehicleCount(3), seed.WithTripCount(5))
		second := seed.NewGenerator(seed.WithSeed(7), seed.WithVehicleCount(3), seed.WithTripCount(5))

		logA := tripstore.NewMemLog()
		logB := tripstore.NewMemLog()

		Convey("When both generate", func() {
			_, errA := first.Generate(ctx, logA)
			_, errB := second.Generate(ctx, logB)

			Convey("Then the efficiency sequences match exactly", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)

				a, _ := logA.Samples(ctx, "VEH-002", time.Time{})
				b, _ := logB.Samples(ctx, "VEH-002", time.Time{})
				So(len(a), ShouldEqual, len(b))
				for i := range a {
					So(a[i].Efficiency, ShouldEqual, b[i].Efficiency)
					So(a[i].Distance, ShouldEqual, b[i].Distance)
				}
			})
		})
	})

	Convey("Given custom fleet dimensions", t, func() {
		gen := seed.NewGenerator(seed.WithVehicleCount(2), seed.WithTripCount(12), seed.WithSpanDays(30))
		log := tripstore.NewMemLog()

		Convey("When the fleet is generated", func() {
			ids, err := gen.Generate(ctx, log)

			Convey("Then the history respects the span", func() {
				So(err, ShouldBeNil)
				So(len(ids), ShouldEqual, 2)

				trips, err := log.Samples(ctx, "VEH-001", time.Time{})
				So(err, ShouldBeNil)
				So(len(trips), ShouldEqual, 12)

				oldest := trips[0].StartDate
				So(time.Since(oldest), ShouldBeLessThan, 31*24*time.Hour)
			})
		})
	})
}
