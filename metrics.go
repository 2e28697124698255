package viewsel

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordRankingBuild is called once after the similarity ranking is
	// built. targets and candidates describe the ranking shape.
	RecordRankingBuild(targets, candidates int, duration time.Duration)

	// RecordSelect is called after each training-time selection.
	// count is the number of sources returned, err is nil if successful.
	RecordSelect(count int, duration time.Duration, err error)

	// RecordViewerSelect is called after each viewer-path selection.
	RecordViewerSelect(duration time.Duration, err error)

	// RecordLoad is called after each payload load batch.
	// count is the number of payloads requested.
	RecordLoad(count int, duration time.Duration, err error)

	// RecordSnapshot is called after each ranking snapshot save or load.
	RecordSnapshot(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRankingBuild(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordSelect(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordViewerSelect(time.Duration, error)    {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SelectCount       atomic.Int64
	SelectErrors      atomic.Int64
	SelectTotalNanos  atomic.Int64
	SelectedSources   atomic.Int64
	ViewerCount       atomic.Int64
	ViewerErrors      atomic.Int64
	LoadCount         atomic.Int64
	LoadErrors        atomic.Int64
	LoadedPayloads    atomic.Int64
	SnapshotCount     atomic.Int64
	SnapshotErrors    atomic.Int64
	RankingBuildNanos atomic.Int64
}

// RecordRankingBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRankingBuild(_, _ int, duration time.Duration) {
	b.RankingBuildNanos.Store(duration.Nanoseconds())
}

// RecordSelect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelect(count int, duration time.Duration, err error) {
	b.SelectCount.Add(1)
	b.SelectTotalNanos.Add(duration.Nanoseconds())
	b.SelectedSources.Add(int64(count))
	if err != nil {
		b.SelectErrors.Add(1)
	}
}

// RecordViewerSelect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordViewerSelect(_ time.Duration, err error) {
	b.ViewerCount.Add(1)
	if err != nil {
		b.ViewerErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(count int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadedPayloads.Add(int64(count))
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(_ time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SelectCount:     b.SelectCount.Load(),
		SelectErrors:    b.SelectErrors.Load(),
		SelectAvgNanos:  b.getAvgSelectNanos(),
		SelectedSources: b.SelectedSources.Load(),
		ViewerCount:     b.ViewerCount.Load(),
		ViewerErrors:    b.ViewerErrors.Load(),
		LoadCount:       b.LoadCount.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		LoadedPayloads:  b.LoadedPayloads.Load(),
		SnapshotCount:   b.SnapshotCount.Load(),
		SnapshotErrors:  b.SnapshotErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSelectNanos() int64 {
	count := b.SelectCount.Load()
	if count == 0 {
		return 0
	}
	return b.SelectTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SelectCount     int64
	SelectErrors    int64
	SelectAvgNanos  int64
	SelectedSources int64
	ViewerCount     int64
	ViewerErrors    int64
	LoadCount       int64
	LoadErrors      int64
	LoadedPayloads  int64
	SnapshotCount   int64
	SnapshotErrors  int64
}
