// Package batch fans baseline establishment out across the fleet with
// bounded concurrency.
package batch

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
	"github.com/fleetsense/fuelwatch/pkg/logger"
	"github.com/fleetsense/fuelwatch/pkg/metrics"
)

// Attempt runs one vehicle's baseline establishment. Implementations must
// be safe for concurrent calls with distinct vehicle ids; no vehicle's
// computation reads or writes another vehicle's state.
type Attempt func(ctx context.Context, vehicleID string) model.EstablishResult

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithWorkerCount bounds the number of concurrent vehicle attempts.
func WithWorkerCount(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workerCount = n
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner executes one batch establishment pass. Runs are idempotent and
// vehicles are processed in no particular order; the report lists results
// sorted by vehicle id for stable output.
type Runner struct {
	workerCount int
	logger      logger.Logger
}

// NewRunner creates a batch runner with configuration options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		workerCount: runtime.NumCPU(),
		logger:      logger.Named("batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies attempt to every vehicle id, honoring ctx for cancellation.
// A failed vehicle never stops the run; remaining vehicles still process.
func (r *Runner) Run(ctx context.Context, vehicleIDs []string, attempt Attempt) model.EstablishReport {
	report := model.EstablishReport{StartedAt: time.Now().UTC()}
	defer func() {
		report.FinishedAt = time.Now().UTC()
		metrics.RecordBatchRunDuration(float64(report.FinishedAt.Sub(report.StartedAt).Milliseconds()))
	}()

	jobs := make(chan string)
	results := make(chan model.EstablishResult)

	var wg sync.WaitGroup
	for i := 0; i < r.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				results <- attempt(ctx, id)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range vehicleIDs {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		metrics.RecordBatchOutcome(string(res.Outcome))
		switch res.Outcome {
		case model.EstablishCreated:
			report.Created++
		case model.EstablishSkipped:
			report.Skipped++
		case model.EstablishFailed:
			report.Failed++
			r.logger.Warn(ctx, "baseline establishment failed",
				logger.String("vehicleID", res.VehicleID),
				logger.String("reason", res.Reason),
			)
		}
		report.Results = append(report.Results, res)
	}

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].VehicleID < report.Results[j].VehicleID
	})

	r.logger.Info(ctx, "batch establishment finished",
		logger.Int("created", report.Created),
		logger.Int("skipped", report.Skipped),
		logger.Int("failed", report.Failed),
	)
	return report
}
