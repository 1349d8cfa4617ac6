// Package checker defines the boundary to the external type-checking pass:
// the identifiers it hands out, the read-only view interning consumes, and
// the uncanonicalized type shapes it produces. The core never creates ids of
// its own and never re-validates what the checker already accepted.
package checker

// SessionID identifies one checker session. Type and group ids are only
// meaningful within the session that produced them; mixing sessions is a
// programmer error that the consuming side faults on.
type SessionID uint64

// TypeID is the checker's identifier for one checked type definition.
type TypeID uint32

// RecGroupID is the checker's identifier for one recursion group.
type RecGroupID uint32

// View is the read-only window into a checker session that interning needs.
// Implementations are supplied by the surrounding front end.
type View interface {
	// Session returns the identity token checked on every call into the
	// interning core.
	Session() SessionID

	// RecGroupOf returns the id of the group that owns the given type.
	RecGroupOf(id TypeID) RecGroupID

	// RecGroupMembers returns the group's member type ids in the checker's
	// fixed declaration order. The count is exact and the order is stable
	// across calls.
	RecGroupMembers(g RecGroupID) []TypeID

	// SubType returns the uncanonicalized body of the given type.
	SubType(id TypeID) *SubType
}
