// Package app wires the baseline engine together and exposes the
// operations consumed by the HTTP API and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/fleetsense/fuelwatch/internal/adapters/batch"
	"github.com/fleetsense/fuelwatch/internal/adapters/repository"
	"github.com/fleetsense/fuelwatch/internal/adapters/tripstore"
	"github.com/fleetsense/fuelwatch/internal/domain/baseline"
	"github.com/fleetsense/fuelwatch/internal/domain/deviation"
	"github.com/fleetsense/fuelwatch/internal/domain/model"
	"github.com/fleetsense/fuelwatch/internal/domain/rollup"
	"github.com/fleetsense/fuelwatch/pkg/logger"
	"github.com/fleetsense/fuelwatch/pkg/metrics"
)

const day = 24 * time.Hour

// Service implements the baseline engine operations over the trip log and
// baseline store adapters.
type Service struct {
	mu sync.Mutex

	// Components
	trips      tripstore.Log
	store      repository.Store
	estimator  *baseline.Estimator
	classifier *deviation.Classifier
	aggregator *rollup.Aggregator
	runner     *batch.Runner

	// Configuration
	dbPath                string
	minSamples            int
	tolerancePercent      float64
	recencyRamp           float64
	baselineWindow        time.Duration
	trendWindow           time.Duration
	shortTrendWindow      time.Duration
	trendBandPercent      float64
	staleAfter            time.Duration
	minConfidence         int
	severityMediumPercent float64
	severityHighPercent   float64
	workerCount           int
	shardCount            int

	// Database handle when dbPath is set; both adapters share it.
	db *sql.DB

	started bool
	logger  logger.Logger
	now     func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDBPath selects the SQLite database file backing the trip log and
// baseline store. Empty keeps both in memory.
func WithDBPath(path string) Option {
	return func(s *Service) { s.dbPath = path }
}

// WithMinSamples sets the minimum post-filter sample count.
func WithMinSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minSamples = n
		}
	}
}

// WithTolerancePercent sets the tolerance band written into baselines.
func WithTolerancePercent(pct float64) Option {
	return func(s *Service) {
		if pct > 0 {
			s.tolerancePercent = pct
		}
	}
}

// WithRecencyRamp sets the recency weighting ramp.
func WithRecencyRamp(ramp float64) Option {
	return func(s *Service) {
		if ramp >= 0 {
			s.recencyRamp = ramp
		}
	}
}

// WithWindows sets the baseline, trend, and short trend windows in days.
func WithWindows(baselineDays, trendDays, shortTrendDays int) Option {
	return func(s *Service) {
		if baselineDays > 0 {
			s.baselineWindow = time.Duration(baselineDays) * day
		}
		if trendDays > 0 {
			s.trendWindow = time.Duration(trendDays) * day
		}
		if shortTrendDays > 0 {
			s.shortTrendWindow = time.Duration(shortTrendDays) * day
		}
	}
}

// WithTrendBand sets the stable band for trend classification.
func WithTrendBand(pct float64) Option {
	return func(s *Service) {
		if pct > 0 {
			s.trendBandPercent = pct
		}
	}
}

// WithStaleness sets the staleness rule in days plus minimum confidence.
func WithStaleness(days, minConfidence int) Option {
	return func(s *Service) {
		if days > 0 {
			s.staleAfter = time.Duration(days) * day
		}
		if minConfidence > 0 {
			s.minConfidence = minConfidence
		}
	}
}

// WithSeverityThresholds sets the medium and high deviation cut-offs.
func WithSeverityThresholds(medium, high float64) Option {
	return func(s *Service) {
		if medium > 0 && high > medium {
			s.severityMediumPercent = medium
			s.severityHighPercent = high
		}
	}
}

// WithWorkerCount bounds batch establishment concurrency.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithShardCount configures the in-memory baseline store sharding.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithTripLog injects a trip log, overriding the dbPath selection.
func WithTripLog(l tripstore.Log) Option {
	return func(s *Service) {
		if l != nil {
			s.trips = l
		}
	}
}

// WithStore injects a baseline store, overriding the dbPath selection.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithClock sets the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		minSamples:            10,
		tolerancePercent:      15,
		recencyRamp:           0.2,
		baselineWindow:        90 * day,
		trendWindow:           30 * day,
		shortTrendWindow:      7 * day,
		trendBandPercent:      5,
		staleAfter:            90 * day,
		minConfidence:         60,
		severityMediumPercent: 15,
		severityHighPercent:   25,
		workerCount:           runtime.NumCPU(),
		shardCount:            8,
		now:                   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.trips == nil || s.store == nil {
		if s.dbPath != "" {
			if err := s.openDatabase(); err != nil {
				return err
			}
			s.logger.Info(ctx, "using sqlite adapters", logger.String("db", s.dbPath))
		} else {
			if s.trips == nil {
				s.trips = tripstore.NewMemLog()
			}
			if s.store == nil {
				s.store = repository.NewMemStore(repository.WithShardCount(s.shardCount))
			}
			s.logger.Info(ctx, "using in-memory adapters")
		}
	}

	s.estimator = baseline.NewEstimator(
		baseline.WithMinSamples(s.minSamples),
		baseline.WithTolerancePercent(s.tolerancePercent),
		baseline.WithRecencyRamp(s.recencyRamp),
		baseline.WithClock(s.now),
	)
	s.classifier = deviation.NewClassifier(
		deviation.WithSeverityThresholds(s.severityMediumPercent, s.severityHighPercent),
	)
	s.aggregator = rollup.NewAggregator(
		rollup.WithTrendWindows(s.trendWindow, s.shortTrendWindow),
		rollup.WithTrendBand(s.trendBandPercent),
		rollup.WithStaleness(s.staleAfter, s.minConfidence),
	)
	s.runner = batch.NewRunner(
		batch.WithWorkerCount(s.workerCount),
		batch.WithLogger(s.logger.Named("batch")),
	)

	s.started = true
	s.logger.Info(ctx, "baseline service started",
		logger.Int("minSamples", s.minSamples),
		logger.Float64("tolerancePercent", s.tolerancePercent),
		logger.Int("workers", s.workerCount),
	)
	return nil
}

func (s *Service) openDatabase() error {
	db, err := sql.Open("sqlite", s.dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return fmt.Errorf("open database %s: %w", s.dbPath, err)
	}
	db.SetMaxOpenConns(1)

	if s.trips == nil {
		tl, err := tripstore.NewSQLLogFromDB(db)
		if err != nil {
			_ = db.Close()
			return err
		}
		s.trips = tl
	}
	if s.store == nil {
		st, err := repository.NewSQLStoreFromDB(db)
		if err != nil {
			_ = db.Close()
			return err
		}
		s.store = st
	}
	s.db = db
	return nil
}

// Stop releases held resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	s.started = false
}

// IngestTrips records trip samples into the trip log. Malformed samples
// are accepted here; eligibility filtering happens at computation time.
func (s *Service) IngestTrips(ctx context.Context, samples []model.TripSample) error {
	if err := s.trips.Append(ctx, samples...); err != nil {
		return err
	}
	metrics.RecordTripsIngested(len(samples))
	return nil
}

// ComputeBaseline recomputes and stores the vehicle's baseline from its
// trip history inside the baseline window. It returns
// baseline.ErrInsufficientSamples when too few eligible samples remain
// after outlier removal; storage failures carry the vehicle id and
// operation for the caller's retry decision.
func (s *Service) ComputeBaseline(ctx context.Context, vehicleID string) (model.Baseline, error) {
	since := s.now().Add(-s.baselineWindow)
	samples, err := s.trips.Samples(ctx, vehicleID, since)
	if err != nil {
		return model.Baseline{}, fmt.Errorf("trip read for vehicle %s: %w", vehicleID, err)
	}

	b, err := s.estimator.Compute(vehicleID, samples)
	if err != nil {
		if errors.Is(err, baseline.ErrInsufficientSamples) {
			metrics.RecordInsufficientSamples()
		}
		return model.Baseline{}, err
	}

	if err := s.store.Put(ctx, b); err != nil {
		return model.Baseline{}, err
	}
	metrics.RecordBaselineComputed(b.ConfidenceScore)
	s.logger.Debug(ctx, "baseline stored",
		logger.String("vehicleID", vehicleID),
		logger.Float64("value", b.BaselineValue),
		logger.Int("confidence", b.ConfidenceScore),
	)
	return b, nil
}

// Baseline returns the vehicle's stored baseline.
// Returns repository.ErrNotFound when none exists.
func (s *Service) Baseline(ctx context.Context, vehicleID string) (model.Baseline, error) {
	return s.store.Get(ctx, vehicleID)
}

// ClassifyDeviation compares one trip against the vehicle's stored
// baseline. A vehicle without a baseline yields deviation.ErrNoBaseline,
// which callers treat as "not applicable" rather than a fault.
func (s *Service) ClassifyDeviation(ctx context.Context, sample model.TripSample) (model.DeviationRecord, error) {
	b, err := s.store.Get(ctx, sample.VehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordDeviationSkipped()
			return model.DeviationRecord{}, deviation.ErrNoBaseline
		}
		return model.DeviationRecord{}, err
	}

	rec, err := s.classifier.Classify(sample, &b)
	if err != nil {
		if errors.Is(err, deviation.ErrNoBaseline) {
			metrics.RecordDeviationSkipped()
		}
		return model.DeviationRecord{}, err
	}
	metrics.RecordDeviation(string(rec.DeviationType), string(rec.Severity))
	return rec, nil
}

// VehicleTrend rolls up the vehicle's recent efficiency against its
// baseline. A missing baseline is not an error; the report says so.
func (s *Service) VehicleTrend(ctx context.Context, vehicleID string) (model.TrendReport, error) {
	now := s.now()
	recent, err := s.trips.Samples(ctx, vehicleID, now.Add(-s.trendWindow))
	if err != nil {
		return model.TrendReport{}, fmt.Errorf("trip read for vehicle %s: %w", vehicleID, err)
	}

	var bp *model.Baseline
	b, err := s.store.Get(ctx, vehicleID)
	switch {
	case err == nil:
		bp = &b
	case errors.Is(err, repository.ErrNotFound):
		// no baseline yet; trend is stable by convention
	default:
		return model.TrendReport{}, err
	}

	return s.aggregator.VehicleTrend(vehicleID, recent, bp, now), nil
}

// FleetCoverage rolls up baseline coverage across every known vehicle.
// The fleet is the union of vehicles with trips and vehicles with a
// stored baseline.
func (s *Service) FleetCoverage(ctx context.Context) (model.CoverageReport, error) {
	ids, err := s.trips.Vehicles(ctx)
	if err != nil {
		return model.CoverageReport{}, fmt.Errorf("vehicle list: %w", err)
	}
	baselines, err := s.store.List(ctx)
	if err != nil {
		return model.CoverageReport{}, fmt.Errorf("baseline list: %w", err)
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for id := range baselines {
		if !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}

	return s.aggregator.FleetCoverage(ids, baselines, s.now()), nil
}

// EstablishBaselines runs batch baseline establishment: every vehicle
// lacking a current baseline gets a computation attempt. Vehicles are
// independent; failures are recorded and the run continues.
func (s *Service) EstablishBaselines(ctx context.Context) (model.EstablishReport, error) {
	ids, err := s.trips.Vehicles(ctx)
	if err != nil {
		return model.EstablishReport{}, fmt.Errorf("vehicle list: %w", err)
	}

	report := s.runner.Run(ctx, ids, s.establishOne)
	return report, nil
}

// establishOne is the per-vehicle batch attempt.
func (s *Service) establishOne(ctx context.Context, vehicleID string) model.EstablishResult {
	now := s.now()

	b, err := s.store.Get(ctx, vehicleID)
	switch {
	case err == nil:
		if !b.Stale(now, s.staleAfter, s.minConfidence) {
			return model.EstablishResult{VehicleID: vehicleID, Outcome: model.EstablishSkipped, Reason: "baseline current"}
		}
	case errors.Is(err, repository.ErrNotFound):
		// no baseline yet; attempt computation
	default:
		return model.EstablishResult{VehicleID: vehicleID, Outcome: model.EstablishFailed, Reason: err.Error()}
	}

	if _, err := s.ComputeBaseline(ctx, vehicleID); err != nil {
		if errors.Is(err, baseline.ErrInsufficientSamples) {
			return model.EstablishResult{VehicleID: vehicleID, Outcome: model.EstablishFailed, Reason: "insufficient samples"}
		}
		return model.EstablishResult{VehicleID: vehicleID, Outcome: model.EstablishFailed, Reason: err.Error()}
	}
	return model.EstablishResult{VehicleID: vehicleID, Outcome: model.EstablishCreated}
}

// TripLog exposes the trip log, used by seeding and tests. Valid after
// Start.
func (s *Service) TripLog() tripstore.Log { return s.trips }

// GetStats returns service statistics for the /stats endpoint.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()
	stats := map[string]interface{}{
		"baselineCount": s.store.Count(ctx),
		"minSamples":    s.minSamples,
		"workerCount":   s.workerCount,
		"started":       s.started,
	}
	if ids, err := s.trips.Vehicles(ctx); err == nil {
		stats["vehicleCount"] = len(ids)
	}
	return stats
}
