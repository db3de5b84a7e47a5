package tripstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
)

// MemLog is an in-memory trip log, used for tests and for running the
// service without a database file.
type MemLog struct {
	mu    sync.RWMutex
	trips map[string][]model.TripSample // vehicle id -> trips, unordered
}

// NewMemLog creates an empty in-memory trip log.
func NewMemLog() *MemLog {
	return &MemLog{trips: make(map[string][]model.TripSample)}
}

// Append records trip samples.
func (l *MemLog) Append(_ context.Context, samples ...model.TripSample) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range samples {
		if s.VehicleID == "" {
			return ErrEmptyVehicleID
		}
		if s.TripID == "" {
			return ErrMissingTripID
		}
		l.trips[s.VehicleID] = append(l.trips[s.VehicleID], s)
	}
	return nil
}

// Samples returns the vehicle's trips starting at or after since, oldest
// first.
func (l *MemLog) Samples(_ context.Context, vehicleID string, since time.Time) ([]model.TripSample, error) {
	if vehicleID == "" {
		return nil, ErrEmptyVehicleID
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.TripSample
	for _, s := range l.trips[vehicleID] {
		if since.IsZero() || !s.StartDate.Before(since) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// Vehicles lists every vehicle with at least one recorded trip, sorted.
func (l *MemLog) Vehicles(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.trips))
	for id := range l.trips {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
