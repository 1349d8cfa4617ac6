package intern

import "errors"

// Recoverable conversion failures surfaced from InternRecGroup and
// InternType. Contract violations (wrong session, desynchronized references)
// are panics, not errors: they indicate a bug, not bad input.
var (
	// ErrTypeIndexOutOfRange reports a module-local type reference beyond
	// the caller's module index table.
	ErrTypeIndexOutOfRange = errors.New("module type index out of range")

	// ErrMalformedType reports a source body the converter cannot represent.
	ErrMalformedType = errors.New("malformed source type")
)
