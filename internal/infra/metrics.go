package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	framesProcessed  atomic.Uint64
	decodeErrors     atomic.Uint64
	unknownMessages  atomic.Uint64
	snapshotsApplied atomic.Uint64
	diffsApplied     atomic.Uint64
	staleTransitions atomic.Uint64

	// Gauges
	connected atomic.Int32 // 1 = connected, 0 = disconnected
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordFrame records one successfully decoded inbound frame.
func (m *Metrics) RecordFrame() {
	m.framesProcessed.Add(1)
}

// RecordDecodeError records a frame that failed to decode or parse.
func (m *Metrics) RecordDecodeError() {
	m.decodeErrors.Add(1)
}

// RecordUnknownMessage records a frame with an unrecognized type tag.
func (m *Metrics) RecordUnknownMessage() {
	m.unknownMessages.Add(1)
}

// RecordSnapshot records one applied order book snapshot.
func (m *Metrics) RecordSnapshot() {
	m.snapshotsApplied.Add(1)
}

// RecordDiffs records n applied incremental book changes.
func (m *Metrics) RecordDiffs(n int) {
	m.diffsApplied.Add(uint64(n))
}

// RecordStaleTransition records one fresh-to-stale feed transition.
func (m *Metrics) RecordStaleTransition() {
	m.staleTransitions.Add(1)
}

// SetConnected sets the websocket connection gauge.
func (m *Metrics) SetConnected(connected bool) {
	if connected {
		m.connected.Store(1)
	} else {
		m.connected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	FramesProcessed  uint64
	DecodeErrors     uint64
	UnknownMessages  uint64
	SnapshotsApplied uint64
	DiffsApplied     uint64
	StaleTransitions uint64
	Connected        bool
	Timestamp        time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		FramesProcessed:  m.framesProcessed.Load(),
		DecodeErrors:     m.decodeErrors.Load(),
		UnknownMessages:  m.unknownMessages.Load(),
		SnapshotsApplied: m.snapshotsApplied.Load(),
		DiffsApplied:     m.diffsApplied.Load(),
		StaleTransitions: m.staleTransitions.Load(),
		Connected:        m.connected.Load() == 1,
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.framesProcessed.Store(0)
	m.decodeErrors.Store(0)
	m.unknownMessages.Store(0)
	m.snapshotsApplied.Store(0)
	m.diffsApplied.Store(0)
	m.staleTransitions.Store(0)
	m.connected.Store(0)
}
