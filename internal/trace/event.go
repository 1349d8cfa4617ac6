package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindBegin marks the start of a logical operation.
	KindBegin Kind = iota + 1
	// KindEnd marks the end of a logical operation.
	KindEnd
	// KindPoint represents an instant event.
	KindPoint
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event. Lower numeric values
// represent coarser events.
type Scope uint8

const (
	// ScopeSection represents whole-type-section operations.
	ScopeSection Scope = iota + 1
	// ScopeGroup represents per-recursion-group processing.
	ScopeGroup
	// ScopeType represents per-type-definition events (most detailed).
	ScopeType
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeSection:
		return "section"
	case ScopeGroup:
		return "group"
	case ScopeType:
		return "type"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time   time.Time // wall-clock timestamp
	Seq    uint64    // global sequence number (monotonic)
	Kind   Kind      // event kind
	Scope  Scope     // granularity level
	Name   string    // e.g., "reserve", "close", "trampoline"
	Detail string    // optional detail message
}
