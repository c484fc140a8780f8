// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime counters for the driver. Connection callbacks increment them from
// the connection's queue; the main goroutine snapshots them on exit.

package control

import (
	"sync"
	"time"
)

// MetricsRegistry holds named counters.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]uint64
	updated  time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]uint64),
	}
}

// Inc adds one to key.
func (mr *MetricsRegistry) Inc(key string) {
	mr.Add(key, 1)
}

// Add adds delta to key.
func (mr *MetricsRegistry) Add(key string, delta uint64) {
	mr.mu.Lock()
	mr.counters[key] += delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Get returns the value of key.
func (mr *MetricsRegistry) Get(key string) uint64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.counters[key]
}

// GetSnapshot returns a copy of all counters.
func (mr *MetricsRegistry) GetSnapshot() map[string]uint64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]uint64, len(mr.counters))
	for k, v := range mr.counters {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last change.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
