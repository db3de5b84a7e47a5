package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/fleetsense/fuelwatch/internal/domain/model"
	"github.com/fleetsense/fuelwatch/pkg/metrics"
)

// Default sharding configuration.
const defaultShardCount = 8

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithShardCount sets the number of shards the key space is split across.
func WithShardCount(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// MemStore is a sharded, mutex-guarded in-memory Store. Shard selection is
// a hash of the vehicle id, so contention stays per-shard under the batch
// runner's concurrent writes.
type MemStore struct {
	shardCount int
	shards     []*memShard
}

type memShard struct {
	mu        sync.RWMutex
	baselines map[string]model.Baseline
}

// NewMemStore creates an in-memory baseline store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*memShard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &memShard{baselines: make(map[string]model.Baseline)}
	}
	metrics.UpdateStoreShardCount(s.shardCount)
	return s
}

func (s *MemStore) shardFor(vehicleID string) *memShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(vehicleID))
	return s.shards[int(h.Sum32())%s.shardCount]
}

// Get returns the baseline for a vehicle.
func (s *MemStore) Get(ctx context.Context, vehicleID string) (model.Baseline, error) {
	if vehicleID == "" {
		return model.Baseline{}, ErrEmptyVehicleID
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds())) }()

	sh := s.shardFor(vehicleID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	b, ok := sh.baselines[vehicleID]
	if !ok {
		return model.Baseline{}, fmt.Errorf("baseline get for vehicle %s: %w", vehicleID, ErrNotFound)
	}
	return b, nil
}

// Put inserts or overwrites the vehicle's baseline.
func (s *MemStore) Put(ctx context.Context, b model.Baseline) error {
	if b.VehicleID == "" {
		return ErrEmptyVehicleID
	}
	start := time.Now()
	defer func() { metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	sh := s.shardFor(b.VehicleID)
	sh.mu.Lock()
	sh.baselines[b.VehicleID] = b
	sh.mu.Unlock()

	metrics.UpdateStoreBaselineCount(s.Count(ctx))
	return nil
}

// List returns a copy of every stored baseline keyed by vehicle id.
func (s *MemStore) List(_ context.Context) (map[string]model.Baseline, error) {
	out := make(map[string]model.Baseline)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id, b := range sh.baselines {
			out[id] = b
		}
		sh.mu.RUnlock()
	}
	return out, nil
}

// Count returns the number of vehicles with a stored baseline.
func (s *MemStore) Count(_ context.Context) int {
	var n int
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.baselines)
		sh.mu.RUnlock()
	}
	return n
}
