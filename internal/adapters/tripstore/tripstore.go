// Package tripstore provides the trip record accessor: time-bounded,
// per-vehicle reads over historical trip samples.
package tripstore

import (
	"context"
	"time"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
)

// Reader supplies trip samples for the engine. since bounds the read: only
// trips starting at or after it are returned, oldest first. A zero since
// returns the full history.
type Reader interface {
	Samples(ctx context.Context, vehicleID string, since time.Time) ([]model.TripSample, error)

	// Vehicles lists every vehicle id with at least one recorded trip.
	Vehicles(ctx context.Context) ([]string, error)
}

// Appender records new trip samples. Ingestion accepts malformed records;
// eligibility filtering happens at computation time, not at the door.
type Appender interface {
	Append(ctx context.Context, samples ...model.TripSample) error
}

// Log combines reading and appending trip records.
type Log interface {
	Reader
	Appender
}
