package batch_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fleetsense/fuelwatch/internal/adapters/batch"
	"github.com/fleetsense/fuelwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fleet(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("VEH-%03d", i+1)
	}
	return ids
}

func TestRunnerRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a runner over a fleet with mixed outcomes", t, func() {
		runner := batch.NewRunner(batch.WithWorkerCount(4))

		attempt := func(_ context.Context, id string) model.EstablishResult {
			switch id {
			case "VEH-002", "VEH-005":
				return model.EstablishResult{VehicleID: id, Outcome: model.EstablishSkipped, Reason: "baseline current"}
			case "VEH-007":
				return model.EstablishResult{VehicleID: id, Outcome: model.EstablishFailed, Reason: "insufficient samples"}
			default:
				return model.EstablishResult{VehicleID: id, Outcome: model.EstablishCreated}
			}
		}

		Convey("When the batch runs", func() {
			report := runner.Run(ctx, fleet(10), attempt)

			Convey("Then the counters match the per-vehicle outcomes", func() {
				So(report.Created, ShouldEqual, 7)
				So(report.Skipped, ShouldEqual, 2)
				So(report.Failed, ShouldEqual, 1)
				So(len(report.Results), ShouldEqual, 10)
			})

			Convey("And results are sorted by vehicle id", func() {
				for i := 1; i < len(report.Results); i++ {
					So(report.Results[i-1].VehicleID, ShouldBeLessThan, report.Results[i].VehicleID)
				}
			})

			Convey("And the failed vehicle carries its reason", func() {
				So(report.Results[6].VehicleID, ShouldEqual, "VEH-007")
				So(report.Results[6].Outcome, ShouldEqual, model.EstablishFailed)
				So(report.Results[6].Reason, ShouldEqual, "insufficient samples")
			})

			Convey("And the run is timestamped", func() {
				So(report.FinishedAt.Before(report.StartedAt), ShouldBeFalse)
			})
		})
	})

	Convey("Given an attempt that fails for every vehicle", t, func() {
		runner := batch.NewRunner(batch.WithWorkerCount(2))
		var calls atomic.Int64

		attempt := func(_ context.Context, id string) model.EstablishResult {
			calls.Add(1)
			return model.EstablishResult{VehicleID: id, Outcome: model.EstablishFailed, Reason: "store unavailable"}
		}

		Convey("When the batch runs", func() {
			report := runner.Run(ctx, fleet(6), attempt)

			Convey("Then failures never short-circuit the remaining vehicles", func() {
				So(calls.Load(), ShouldEqual, 6)
				So(report.Failed, ShouldEqual, 6)
				So(report.Created, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded worker count", t, func() {
		runner := batch.NewRunner(batch.WithWorkerCount(3))

		var mu sync.Mutex
		var inFlight, peak int
		gate := make(chan struct{})

		attempt := func(_ context.Context, id string) model.EstablishResult {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			<-gate

			mu.Lock()
			inFlight--
			mu.Unlock()
			return model.EstablishResult{VehicleID: id, Outcome: model.EstablishCreated}
		}

		Convey("When more vehicles than workers are queued", func() {
			done := make(chan model.EstablishReport, 1)
			go func() { done <- runner.Run(ctx, fleet(9), attempt) }()
			close(gate)
			report := <-done

			Convey("Then concurrency never exceeds the worker count", func() {
				mu.Lock()
				defer mu.Unlock()
				So(peak, ShouldBeLessThanOrEqualTo, 3)
				So(report.Created, ShouldEqual, 9)
			})
		})
	})

	Convey("Given a canceled context", t, func() {
		runner := batch.NewRunner(batch.WithWorkerCount(2))
		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		attempt := func(_ context.Context, id string) model.EstablishResult {
			return model.EstablishResult{VehicleID: id, Outcome: model.EstablishCreated}
		}

		Convey("When the batch runs", func() {
			report := runner.Run(canceled, fleet(100), attempt)

			Convey("Then the feeder stops early instead of draining the fleet", func() {
				So(len(report.Results), ShouldBeLessThanOrEqualTo, 100)
				So(report.FinishedAt.IsZero(), ShouldBeFalse)
			})
		})
	})

	Convey("Given an empty fleet", t, func() {
		runner := batch.NewRunner()

		Convey("When the batch runs", func() {
			report := runner.Run(ctx, nil, func(_ context.Context, id string) model.EstablishResult {
				return model.EstablishResult{VehicleID: id, Outcome: model.EstablishCreated}
			})

			Convey("Then the report is empty and the run still completes", func() {
				So(len(report.Results), ShouldEqual, 0)
				So(report.Created+report.Skipped+report.Failed, ShouldEqual, 0)
			})
		})
	})
}
