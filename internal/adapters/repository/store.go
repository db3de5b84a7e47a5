// Package repository defines the baseline store interface and errors.
package repository

import (
	"context"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
)

// Store provides keyed access to per-vehicle baselines. The contract is
// last-write-wins per vehicle; there are no cross-vehicle invariants.
type Store interface {
	// Get returns the baseline for a vehicle.
	// Returns ErrNotFound when the vehicle has none.
	Get(ctx context.Context, vehicleID string) (model.Baseline, error)

	// Put inserts or wholesale-overwrites the vehicle's baseline.
	Put(ctx context.Context, b model.Baseline) error

	// List returns every stored baseline keyed by vehicle id.
	List(ctx context.Context) (map[string]model.Baseline, error)

	// Count returns the number of vehicles with a stored baseline.
	Count(ctx context.Context) int
}
