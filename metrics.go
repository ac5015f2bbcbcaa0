package meshtopo

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// metrics/prom provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordPhase is called after each construction phase on each rank.
	// duration is the time the phase took, err is nil if it succeeded.
	RecordPhase(phase string, duration time.Duration, err error)

	// RecordTopology is called once per rank after CreateTopology succeeds.
	RecordTopology(ownedVertices, ghostVertices, cells int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPhase(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordTopology(int, int, int)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// It is safe for use by all ranks of an in-process world at once.
type BasicMetricsCollector struct {
	PhaseCount      atomic.Int64
	PhaseErrors     atomic.Int64
	PhaseTotalNanos atomic.Int64
	TopologyCount   atomic.Int64
	OwnedVertices   atomic.Int64
	GhostVertices   atomic.Int64
	Cells           atomic.Int64

	mu     sync.Mutex
	phases map[string]time.Duration
}

// RecordPhase implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPhase(phase string, duration time.Duration, err error) {
	b.PhaseCount.Add(1)
	b.PhaseTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PhaseErrors.Add(1)
	}
	b.mu.Lock()
	if b.phases == nil {
		b.phases = make(map[string]time.Duration)
	}
	b.phases[phase] += duration
	b.mu.Unlock()
}

// RecordTopology implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTopology(ownedVertices, ghostVertices, cells int) {
	b.TopologyCount.Add(1)
	b.OwnedVertices.Add(int64(ownedVertices))
	b.GhostVertices.Add(int64(ghostVertices))
	b.Cells.Add(int64(cells))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	b.mu.Lock()
	phases := make(map[string]time.Duration, len(b.phases))
	for k, v := range b.phases {
		phases[k] = v
	}
	b.mu.Unlock()

	return BasicMetricsStats{
		PhaseCount:     b.PhaseCount.Load(),
		PhaseErrors:    b.PhaseErrors.Load(),
		PhaseAvgNanos:  b.getAvgPhaseNanos(),
		TopologyCount:  b.TopologyCount.Load(),
		OwnedVertices:  b.OwnedVertices.Load(),
		GhostVertices:  b.GhostVertices.Load(),
		Cells:          b.Cells.Load(),
		PhaseDurations: phases,
	}
}

func (b *BasicMetricsCollector) getAvgPhaseNanos() int64 {
	count := b.PhaseCount.Load()
	if count == 0 {
		return 0
	}
	return b.PhaseTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PhaseCount     int64
	PhaseErrors    int64
	PhaseAvgNanos  int64
	TopologyCount  int64
	OwnedVertices  int64
	GhostVertices  int64
	Cells          int64
	PhaseDurations map[string]time.Duration
}
