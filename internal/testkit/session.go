// Package testkit provides a scripted checker session and invariant checks
// for exercising type-section interning in tests.
package testkit

import (
	"fmt"
	"sync/atomic"

	"wavec/internal/checker"
)

var sessionSeq atomic.Uint64

// Session is a scripted checker.View: recursion groups and their bodies are
// registered up front, in declaration order, and served back through the
// interface. Every Session gets a fresh SessionID.
type Session struct {
	id       checker.SessionID
	groups   [][]checker.TypeID
	owner    map[checker.TypeID]checker.RecGroupID
	bodies   map[checker.TypeID]*checker.SubType
	nextType checker.TypeID
}

// NewSession constructs an empty session with a fresh identity.
func NewSession() *Session {
	return &Session{
		id:     checker.SessionID(sessionSeq.Add(1)),
		owner:  make(map[checker.TypeID]checker.RecGroupID),
		bodies: make(map[checker.TypeID]*checker.SubType),
	}
}

// NextTypeID returns the id the next registered type will receive. Callers
// use it to build forward references before AddRecGroup assigns the ids.
func (s *Session) NextTypeID() checker.TypeID { return s.nextType }

// AddRecGroup registers a recursion group and returns its id. Member ids are
// assigned sequentially from NextTypeID in the order given.
func (s *Session) AddRecGroup(bodies ...*checker.SubType) checker.RecGroupID {
	g := checker.RecGroupID(len(s.groups))
	members := make([]checker.TypeID, len(bodies))
	for i, b := range bodies {
		id := s.nextType
		s.nextType++
		members[i] = id
		s.owner[id] = g
		s.bodies[id] = b
	}
	s.groups = append(s.groups, members)
	return g
}

// ReplaceBody swaps the body of an already-registered type, modeling a front
// end that retries after fixing malformed input.
func (s *Session) ReplaceBody(id checker.TypeID, b *checker.SubType) {
	if _, ok := s.bodies[id]; !ok {
		panic(fmt.Sprintf("testkit: no registered type %d", id))
	}
	s.bodies[id] = b
}

// Session implements checker.View.
func (s *Session) Session() checker.SessionID { return s.id }

// RecGroupOf implements checker.View.
func (s *Session) RecGroupOf(id checker.TypeID) checker.RecGroupID {
	g, ok := s.owner[id]
	if !ok {
		panic(fmt.Sprintf("testkit: no registered type %d", id))
	}
	return g
}

// RecGroupMembers implements checker.View.
func (s *Session) RecGroupMembers(g checker.RecGroupID) []checker.TypeID {
	if int(g) >= len(s.groups) {
		panic(fmt.Sprintf("testkit: no registered group %d", g))
	}
	return s.groups[g]
}

// SubType implements checker.View.
func (s *Session) SubType(id checker.TypeID) *checker.SubType {
	b, ok := s.bodies[id]
	if !ok {
		panic(fmt.Sprintf("testkit: no registered type %d", id))
	}
	return b
}
