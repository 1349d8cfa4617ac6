// Package trace provides structured trace events for the type-section
// interning pipeline: reservation, fill, and close of recursion groups, and
// trampoline interning. Tracing is off by default (the Nop tracer) and is
// wired in by the surrounding driver when diagnosing canonicalization.
package trace

import "sync/atomic"

// Tracer is the main interface for emitting trace events.
type Tracer interface {
	// Emit records a trace event.
	Emit(ev Event)

	// Flush ensures all buffered events are written.
	Flush() error

	// Close flushes and releases resources.
	Close() error

	// Level returns the current tracing level.
	Level() Level

	// Enabled returns true if tracing is active (Level > LevelOff).
	Enabled() bool
}

var seq atomic.Uint64

// NextSeq returns the next global event sequence number.
func NextSeq() uint64 {
	return seq.Add(1)
}
