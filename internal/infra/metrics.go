package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	barRequests    atomic.Uint64
	memoMisses     atomic.Uint64
	diskHits       atomic.Uint64
	networkFetches atomic.Uint64
	staleServes    atomic.Uint64
	fetchErrors    atomic.Uint64

	// Payload load latency tracking
	loadSumNs atomic.Int64
	loadCount atomic.Uint64

	// Gauges
	inflightFetches atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordRequest records one GetBars call reaching the service.
func (m *Metrics) RecordRequest() {
	m.barRequests.Add(1)
}

// RecordMemoMiss records a request that had to run the full pipeline.
func (m *Metrics) RecordMemoMiss() {
	m.memoMisses.Add(1)
}

// RecordDiskHit records a payload served from fresh disk cache.
func (m *Metrics) RecordDiskHit() {
	m.diskHits.Add(1)
}

// RecordNetworkFetch records a payload fetched fresh from the backend.
func (m *Metrics) RecordNetworkFetch() {
	m.networkFetches.Add(1)
}

// RecordStaleServe records a payload served from degraded disk data.
func (m *Metrics) RecordStaleServe() {
	m.staleServes.Add(1)
}

// RecordFetchError records a failed or invalid network fetch.
func (m *Metrics) RecordFetchError() {
	m.fetchErrors.Add(1)
}

// RecordLoad records one tiered-store load with its latency.
func (m *Metrics) RecordLoad(latencyNs int64) {
	m.loadSumNs.Add(latencyNs)
	m.loadCount.Add(1)
}

// IncrementInflight increments in-flight network fetches by 1.
func (m *Metrics) IncrementInflight() {
	m.inflightFetches.Add(1)
}

// DecrementInflight decrements in-flight network fetches by 1.
func (m *Metrics) DecrementInflight() {
	m.inflightFetches.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	BarRequests     uint64
	MemoMisses      uint64
	DiskHits        uint64
	NetworkFetches  uint64
	StaleServes     uint64
	FetchErrors     uint64
	AvgLoadNs       int64
	InflightFetches int32
	Timestamp       time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLoad int64
	count := m.loadCount.Load()
	if count > 0 {
		avgLoad = m.loadSumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		BarRequests:     m.barRequests.Load(),
		MemoMisses:      m.memoMisses.Load(),
		DiskHits:        m.diskHits.Load(),
		NetworkFetches:  m.networkFetches.Load(),
		StaleServes:     m.staleServes.Load(),
		FetchErrors:     m.fetchErrors.Load(),
		AvgLoadNs:       avgLoad,
		InflightFetches: m.inflightFetches.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.barRequests.Store(0)
	m.memoMisses.Store(0)
	m.diskHits.Store(0)
	m.networkFetches.Store(0)
	m.staleServes.Store(0)
	m.fetchErrors.Store(0)
	m.loadSumNs.Store(0)
	m.loadCount.Store(0)
	m.inflightFetches.Store(0)
}
