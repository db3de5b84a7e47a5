package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
	"github.com/fleetsense/fuelwatch/pkg/metrics"
)

const baselineSchema = `
CREATE TABLE IF NOT EXISTS baselines (
	vehicle_id              TEXT PRIMARY KEY,
	baseline_value          REAL NOT NULL,
	sample_size             INTEGER NOT NULL,
	confidence_score        INTEGER NOT NULL,
	tolerance_upper_percent REAL NOT NULL,
	tolerance_lower_percent REAL NOT NULL,
	computed_at             INTEGER NOT NULL,
	last_updated            INTEGER NOT NULL,
	range_start             INTEGER NOT NULL,
	range_end               INTEGER NOT NULL,
	range_total_distance    REAL NOT NULL,
	range_total_fuel        REAL NOT NULL,
	range_trip_count        INTEGER NOT NULL
);`

// SQLStore is a Store backed by a SQLite database. Upserts are wholesale
// row replacements, matching the last-write-wins contract. Timestamps are
// stored as unix nanoseconds.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (and if needed initializes) a SQLite-backed baseline
// store at path. Use ":memory:" for an ephemeral store.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open baseline store: %w", err)
	}
	// SQLite performs best with a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(baselineSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init baseline store schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// NewSQLStoreFromDB wraps an existing connection, initializing the schema.
// The caller keeps ownership of db.
func NewSQLStoreFromDB(db *sql.DB) (*SQLStore, error) {
	if _, err := db.Exec(baselineSchema); err != nil {
		return nil, fmt.Errorf("init baseline store schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close baseline store: %w", err)
	}
	return nil
}

// Get returns the baseline for a vehicle.
func (s *SQLStore) Get(ctx context.Context, vehicleID string) (model.Baseline, error) {
	if vehicleID == "" {
		return model.Baseline{}, ErrEmptyVehicleID
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds())) }()

	row := s.db.QueryRowContext(ctx, `
		SELECT vehicle_id, baseline_value, sample_size, confidence_score,
		       tolerance_upper_percent, tolerance_lower_percent,
		       computed_at, last_updated,
		       range_start, range_end, range_total_distance, range_total_fuel, range_trip_count
		FROM baselines WHERE vehicle_id = ?`, vehicleID)

	var b model.Baseline
	var computedAt, lastUpdated, rangeStart, rangeEnd int64
	err := row.Scan(&b.VehicleID, &b.BaselineValue, &b.SampleSize, &b.ConfidenceScore,
		&b.ToleranceUpperPercent, &b.ToleranceLowerPercent,
		&computedAt, &lastUpdated,
		&rangeStart, &rangeEnd, &b.DataRange.TotalDistance, &b.DataRange.TotalFuel, &b.DataRange.TripCount)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Baseline{}, fmt.Errorf("baseline get for vehicle %s: %w", vehicleID, ErrNotFound)
	}
	if err != nil {
		return model.Baseline{}, fmt.Errorf("baseline get for vehicle %s: %w", vehicleID, err)
	}

	b.ComputedAt = time.Unix(0, computedAt).UTC()
	b.LastUpdated = time.Unix(0, lastUpdated).UTC()
	b.DataRange.Start = time.Unix(0, rangeStart).UTC()
	b.DataRange.End = time.Unix(0, rangeEnd).UTC()
	return b, nil
}

// Put inserts or wholesale-overwrites the vehicle's baseline.
func (s *SQLStore) Put(ctx context.Context, b model.Baseline) error {
	if b.VehicleID == "" {
		return ErrEmptyVehicleID
	}
	start := time.Now()
	defer func() { metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO baselines (
			vehicle_id, baseline_value, sample_size, confidence_score,
			tolerance_upper_percent, tolerance_lower_percent,
			computed_at, last_updated,
			range_start, range_end, range_total_distance, range_total_fuel, range_trip_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(vehicle_id) DO UPDATE SET
			baseline_value          = excluded.baseline_value,
			sample_size             = excluded.sample_size,
			confidence_score        = excluded.confidence_score,
			tolerance_upper_percent = excluded.tolerance_upper_percent,
			tolerance_lower_percent = excluded.tolerance_lower_percent,
			computed_at             = excluded.computed_at,
			last_updated            = excluded.last_updated,
			range_start             = excluded.range_start,
			range_end               = excluded.range_end,
			range_total_distance    = excluded.range_total_distance,
			range_total_fuel        = excluded.range_total_fuel,
			range_trip_count        = excluded.range_trip_count`,
		b.VehicleID, b.BaselineValue, b.SampleSize, b.ConfidenceScore,
		b.ToleranceUpperPercent, b.ToleranceLowerPercent,
		b.ComputedAt.UnixNano(), b.LastUpdated.UnixNano(),
		b.DataRange.Start.UnixNano(), b.DataRange.End.UnixNano(),
		b.DataRange.TotalDistance, b.DataRange.TotalFuel, b.DataRange.TripCount)
	if err != nil {
		return fmt.Errorf("baseline upsert for vehicle %s: %w", b.VehicleID, err)
	}

	metrics.UpdateStoreBaselineCount(s.Count(ctx))
	return nil
}

// List returns every stored baseline keyed by vehicle id.
func (s *SQLStore) List(ctx context.Context) (map[string]model.Baseline, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT vehicle_id FROM baselines`)
	if err != nil {
		return nil, fmt.Errorf("baseline list: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("baseline list scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("baseline list rows: %w", err)
	}

	out := make(map[string]model.Baseline, len(ids))
	for _, id := range ids {
		b, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = b
	}
	return out, nil
}

// Count returns the number of vehicles with a stored baseline.
func (s *SQLStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM baselines`).Scan(&n); err != nil {
		return 0
	}
	return n
}
