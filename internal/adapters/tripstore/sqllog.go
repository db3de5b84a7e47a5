package tripstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
)

const tripSchema = `
CREATE TABLE IF NOT EXISTS trips (
	trip_id       TEXT PRIMARY KEY,
	vehicle_id    TEXT NOT NULL,
	start_date    INTEGER NOT NULL,
	distance      REAL NOT NULL,
	fuel_quantity REAL NOT NULL,
	efficiency    REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trips_vehicle_date ON trips(vehicle_id, start_date);`

// SQLLog is a trip log backed by a SQLite database. Timestamps are stored
// as unix nanoseconds.
type SQLLog struct {
	db *sql.DB
}

// NewSQLLog opens (and if needed initializes) a SQLite-backed trip log at
// path. Use ":memory:" for an ephemeral log.
func NewSQLLog(path string) (*SQLLog, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open trip log: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(tripSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init trip log schema: %w", err)
	}
	return &SQLLog{db: db}, nil
}

// NewSQLLogFromDB wraps an existing connection, initializing the schema.
// The caller keeps ownership of db.
func NewSQLLogFromDB(db *sql.DB) (*SQLLog, error) {
	if _, err := db.Exec(tripSchema); err != nil {
		return nil, fmt.Errorf("init trip log schema: %w", err)
	}
	return &SQLLog{db: db}, nil
}

// Close releases the underlying database handle.
func (l *SQLLog) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("close trip log: %w", err)
	}
	return nil
}

// Append records trip samples. Re-appending an existing trip id replaces
// the row, which keeps ingestion idempotent for retried uploads.
func (l *SQLLog) Append(ctx context.Context, samples ...model.TripSample) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("trip append begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO trips (trip_id, vehicle_id, start_date, distance, fuel_quantity, efficiency)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("trip append prepare: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if s.VehicleID == "" {
			return ErrEmptyVehicleID
		}
		if s.TripID == "" {
			return ErrMissingTripID
		}
		if _, err := stmt.ExecContext(ctx, s.TripID, s.VehicleID, s.StartDate.UnixNano(),
			s.Distance, s.FuelQuantity, s.EfficiencyValue()); err != nil {
			return fmt.Errorf("trip append for vehicle %s: %w", s.VehicleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("trip append commit: %w", err)
	}
	return nil
}

// Samples returns the vehicle's trips starting at or after since, oldest
// first.
func (l *SQLLog) Samples(ctx context.Context, vehicleID string, since time.Time) ([]model.TripSample, error) {
	if vehicleID == "" {
		return nil, ErrEmptyVehicleID
	}

	var cutoff int64
	if !since.IsZero() {
		cutoff = since.UnixNano()
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT trip_id, vehicle_id, start_date, distance, fuel_quantity, efficiency
		FROM trips WHERE vehicle_id = ? AND start_date >= ?
		ORDER BY start_date ASC`, vehicleID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("trip read for vehicle %s: %w", vehicleID, err)
	}
	defer rows.Close()

	var out []model.TripSample
	for rows.Next() {
		var s model.TripSample
		var startDate int64
		if err := rows.Scan(&s.TripID, &s.VehicleID, &startDate, &s.Distance, &s.FuelQuantity, &s.Efficiency); err != nil {
			return nil, fmt.Errorf("trip scan for vehicle %s: %w", vehicleID, err)
		}
		s.StartDate = time.Unix(0, startDate).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trip rows for vehicle %s: %w", vehicleID, err)
	}
	return out, nil
}

// Vehicles lists every vehicle with at least one recorded trip, sorted.
func (l *SQLLog) Vehicles(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT DISTINCT vehicle_id FROM trips ORDER BY vehicle_id`)
	if err != nil {
		return nil, fmt.Errorf("trip vehicles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("trip vehicles scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trip vehicles rows: %w", err)
	}
	return ids, nil
}
