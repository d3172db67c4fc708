package cachego

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    hitCounter  prometheus.Counter
//	    setDuration prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordGet(cache string, hit bool) {
//	    if hit {
//	        p.hitCounter.Inc()
//	    }
//	}
type MetricsCollector interface {
	// RecordGet is called after each read, hit or miss. Expiry discovered
	// during a read counts as a miss.
	RecordGet(cache string, hit bool)

	// RecordSet is called after each write completes, including any
	// eviction and persistence it triggered.
	RecordSet(cache string, duration time.Duration)

	// RecordEviction is called when a write pushes the cache past its
	// size bound and an entry is removed.
	RecordEviction(cache string)

	// RecordSweep is called after a cleanup pass.
	RecordSweep(cache string, removed int, duration time.Duration)

	// RecordPersist is called after each snapshot write attempt.
	// err is nil if successful.
	RecordPersist(cache string, size int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGet(string, bool)                          {}
func (NoopMetricsCollector) RecordSet(string, time.Duration)                 {}
func (NoopMetricsCollector) RecordEviction(string)                           {}
func (NoopMetricsCollector) RecordSweep(string, int, time.Duration)          {}
func (NoopMetricsCollector) RecordPersist(string, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	Hits              atomic.Int64
	Misses            atomic.Int64
	Sets              atomic.Int64
	SetTotalNanos     atomic.Int64
	Evictions         atomic.Int64
	SweepCount        atomic.Int64
	SweepRemoved      atomic.Int64
	PersistCount      atomic.Int64
	PersistErrors     atomic.Int64
	PersistTotalBytes atomic.Int64
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(_ string, hit bool) {
	if hit {
		b.Hits.Add(1)
	} else {
		b.Misses.Add(1)
	}
}

// RecordSet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSet(_ string, duration time.Duration) {
	b.Sets.Add(1)
	b.SetTotalNanos.Add(duration.Nanoseconds())
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(string) {
	b.Evictions.Add(1)
}

// RecordSweep implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSweep(_ string, removed int, _ time.Duration) {
	b.SweepCount.Add(1)
	b.SweepRemoved.Add(int64(removed))
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(_ string, size int, _ time.Duration, err error) {
	b.PersistCount.Add(1)
	b.PersistTotalBytes.Add(int64(size))
	if err != nil {
		b.PersistErrors.Add(1)
	}
}
