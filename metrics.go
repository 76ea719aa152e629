package facetidx

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordFieldLevels is called after computing the number or string levels
	// of one field. levels is the number of levels built above level 0.
	RecordFieldLevels(kind string, levels, level0Size int, duration time.Duration, err error)

	// RecordRebuild is called after each facet rebuild.
	RecordRebuild(fields int, duration time.Duration, err error)

	// RecordSnapshot is called after saving or loading a snapshot.
	RecordSnapshot(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFieldLevels(string, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRebuild(int, time.Duration, error)                  {}
func (NoopMetricsCollector) RecordSnapshot(int64, time.Duration, error)               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	FieldLevelsCount  atomic.Int64
	FieldLevelsErrors atomic.Int64
	LevelsBuilt       atomic.Int64
	Level0Entries     atomic.Int64
	RebuildCount      atomic.Int64
	RebuildErrors     atomic.Int64
	RebuildFields     atomic.Int64
	RebuildTotalNanos atomic.Int64
	SnapshotCount     atomic.Int64
	SnapshotErrors    atomic.Int64
	SnapshotBytes     atomic.Int64
}

// RecordFieldLevels implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFieldLevels(_ string, levels, level0Size int, _ time.Duration, err error) {
	b.FieldLevelsCount.Add(1)
	if err != nil {
		b.FieldLevelsErrors.Add(1)
		return
	}
	b.LevelsBuilt.Add(int64(levels))
	b.Level0Entries.Add(int64(level0Size))
}

// RecordRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebuild(fields int, duration time.Duration, err error) {
	b.RebuildCount.Add(1)
	b.RebuildFields.Add(int64(fields))
	b.RebuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RebuildErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(bytes int64, _ time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FieldLevelsCount:  b.FieldLevelsCount.Load(),
		FieldLevelsErrors: b.FieldLevelsErrors.Load(),
		LevelsBuilt:       b.LevelsBuilt.Load(),
		Level0Entries:     b.Level0Entries.Load(),
		RebuildCount:      b.RebuildCount.Load(),
		RebuildErrors:     b.RebuildErrors.Load(),
		RebuildFields:     b.RebuildFields.Load(),
		RebuildAvgNanos:   b.getAvgRebuildNanos(),
		SnapshotCount:     b.SnapshotCount.Load(),
		SnapshotErrors:    b.SnapshotErrors.Load(),
		SnapshotBytes:     b.SnapshotBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRebuildNanos() int64 {
	count := b.RebuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.RebuildTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FieldLevelsCount  int64
	FieldLevelsErrors int64
	LevelsBuilt       int64
	Level0Entries     int64
	RebuildCount      int64
	RebuildErrors     int64
	RebuildFields     int64
	RebuildAvgNanos   int64
	SnapshotCount     int64
	SnapshotErrors    int64
	SnapshotBytes     int64
}
