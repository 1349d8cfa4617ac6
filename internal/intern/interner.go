// Package intern canonicalizes a module's type section: it consumes checked
// type definitions recursion group by recursion group and produces the
// compact, deduplicated, index-addressable store the rest of the pipeline
// works with.
//
// Recursion groups may contain forward and mutual references. The interner
// handles them by reserving a contiguous block of canonical indices for a
// group's members before any body is converted, so every reference already
// has an index by the time the bodies need one.
package intern

import (
	"fmt"

	"fortio.org/safecast"

	"wavec/internal/checker"
	"wavec/internal/trace"
	"wavec/internal/types"
)

// groupState tracks where the interner is in a recursion group's lifecycle.
// At most one group is ever between reserving and closing.
type groupState uint8

const (
	stateIdle groupState = iota
	stateReserving
	stateFilling
)

// pendingGroup is the transient bookkeeping for the group being defined,
// created at reservation and consumed at close.
type pendingGroup struct {
	group  types.RecGroupIndex
	start  types.ModuleTypeIndex
	end    types.ModuleTypeIndex
	filled int
}

// Interner builds the canonical type section for one module. It is bound to
// a single checker session for its whole lifetime and owned by a single
// caller; it is not safe for concurrent use.
type Interner struct {
	session checker.SessionID
	store   *types.ModuleTypes

	// Derived trampoline signatures already interned, keyed by the derived
	// signature's structural key so distinct originals that normalize to the
	// same shape share one trampoline definition.
	trampolines map[string]types.ModuleTypeIndex

	// Checker type id to canonical index. Entries for a group's members are
	// inserted eagerly at reservation, before any body is converted; that is
	// what makes forward references resolvable.
	typeIndex map[checker.TypeID]types.ModuleTypeIndex

	// Recursion groups already interned, keyed by the checker's group
	// identity. Structurally identical groups with different ids stay
	// distinct.
	groupIndex map[checker.RecGroupID]types.RecGroupIndex

	state   groupState
	pending pendingGroup

	tracer trace.Tracer
}

// NewInterner constructs an interner bound to the view's session.
func NewInterner(view checker.View) *Interner {
	return &Interner{
		session:     view.Session(),
		store:       types.NewModuleTypes(),
		trampolines: make(map[string]types.ModuleTypeIndex),
		typeIndex:   make(map[checker.TypeID]types.ModuleTypeIndex, 64),
		groupIndex:  make(map[checker.RecGroupID]types.RecGroupIndex),
		tracer:      trace.Nop,
	}
}

// SetTracer installs a tracer; nil restores the nop tracer.
func (in *Interner) SetTracer(tr trace.Tracer) {
	if tr == nil {
		tr = trace.Nop
	}
	in.tracer = tr
}

// Session returns the checker session this interner is bound to.
func (in *Interner) Session() checker.SessionID { return in.session }

// Reserve grows store capacity for n more type definitions.
func (in *Interner) Reserve(n int) {
	in.ensureLive()
	in.store.Reserve(n)
}

func (in *Interner) checkSession(view checker.View) {
	if view.Session() != in.session {
		panic(fmt.Sprintf("intern: view from session %d used with interner bound to session %d",
			view.Session(), in.session))
	}
}

func (in *Interner) ensureLive() {
	if in.store == nil {
		panic("intern: interner used after Finish")
	}
}

// InternRecGroup interns a recursion group and all of its member types,
// returning the canonical group index. Interning the same source group twice
// returns the cached index without touching the store.
//
// moduleTypes maps the module's own type-index space to canonical indices;
// it must cover every module-local reference the group's bodies contain.
//
// Panics when view belongs to a different session than the interner.
func (in *Interner) InternRecGroup(view checker.View, moduleTypes []types.ModuleTypeIndex, g checker.RecGroupID) (types.RecGroupIndex, error) {
	in.ensureLive()
	in.checkSession(view)

	if idx, ok := in.groupIndex[g]; ok {
		return idx, nil
	}
	return in.defineRecGroup(view, moduleTypes, g)
}

// InternType interns the whole recursion group that owns id and returns id's
// canonical index.
func (in *Interner) InternType(view checker.View, moduleTypes []types.ModuleTypeIndex, id checker.TypeID) (types.ModuleTypeIndex, error) {
	in.ensureLive()
	in.checkSession(view)
	if in.state != stateIdle {
		panic("intern: InternType while a rec group is being defined")
	}

	g := view.RecGroupOf(id)
	if _, err := in.InternRecGroup(view, moduleTypes, g); err != nil {
		return types.NoModuleTypeIndex, err
	}

	idx, ok := in.typeIndex[id]
	if !ok {
		panic(fmt.Sprintf("intern: checker type %d missing after its group was interned", id))
	}
	return idx, nil
}

func (in *Interner) defineRecGroup(view checker.View, moduleTypes []types.ModuleTypeIndex, g checker.RecGroupID) (types.RecGroupIndex, error) {
	members := view.RecGroupMembers(g)
	in.startRecGroup(members)

	conv := newTypeConverter(in, moduleTypes).withRecGroup(view, g)
	for _, id := range members {
		st, err := conv.convertSubType(view.SubType(id))
		if err != nil {
			// Leave the group unpublished so a corrected retry starts
			// fresh. The reserved indices stay allocated and unused.
			in.abandonRecGroup()
			return types.NoRecGroupIndex, fmt.Errorf("converting type %d of group %d: %w", id, g, err)
		}
		in.defineSubType(id, st)
	}
	idx := in.endRecGroup(g)

	// Every function type needs an associated trampoline type. This runs
	// after the group closes because it may intern new types, which must not
	// land inside the contiguous range just reserved for the members.
	for _, ty := range in.store.RecGroupElements(idx) {
		if in.store.MustType(ty).Composite.IsFunc() {
			in.store.SetTrampolineType(ty, in.internTrampolineType(ty))
		}
	}

	return idx, nil
}

// startRecGroup reserves a contiguous index block for the group's members
// and publishes their index-table entries before any body exists.
func (in *Interner) startRecGroup(members []checker.TypeID) {
	if in.state != stateIdle {
		panic("intern: rec group already being defined")
	}
	in.state = stateReserving

	start := in.store.NextTypeIndex()
	for i, id := range members {
		off, err := safecast.Conv[uint32](i)
		if err != nil {
			panic(fmt.Errorf("rec group member offset overflow: %w", err))
		}
		idx := start + types.ModuleTypeIndex(off)
		// Overwrites any entry left behind by a previously failed attempt
		// at this group.
		in.typeIndex[id] = idx
		in.tracer.Emit(trace.Event{
			Kind:   trace.KindPoint,
			Scope:  trace.ScopeType,
			Name:   "reserve",
			Detail: fmt.Sprintf("checker type %d -> %v", id, idx),
		})
	}

	n, err := safecast.Conv[uint32](len(members))
	if err != nil {
		panic(fmt.Errorf("rec group length overflow: %w", err))
	}
	in.pending = pendingGroup{
		group: in.store.NextRecGroupIndex(),
		start: start,
		end:   start + types.ModuleTypeIndex(n),
	}
	in.state = stateFilling
	in.tracer.Emit(trace.Event{
		Kind:   trace.KindBegin,
		Scope:  trace.ScopeGroup,
		Name:   "rec-group",
		Detail: fmt.Sprintf("%d members at %v", len(members), start),
	})
}

// defineSubType appends one converted member. The expected index is
// re-derived from the index table and must match what the store assigns.
func (in *Interner) defineSubType(id checker.TypeID, st types.SubType) types.ModuleTypeIndex {
	if in.state != stateFilling {
		panic("intern: defining a type outside of a rec group")
	}
	want, ok := in.typeIndex[id]
	if !ok {
		panic(fmt.Sprintf("intern: checker type %d was never reserved", id))
	}
	got := in.store.Push(st)
	if got != want {
		panic(fmt.Sprintf("intern: reserved %v for checker type %d but store assigned %v", want, id, got))
	}
	in.pending.filled++
	return got
}

// endRecGroup closes the group: the appended count must match the
// reservation exactly.
func (in *Interner) endRecGroup(g checker.RecGroupID) types.RecGroupIndex {
	if in.state != stateFilling {
		panic("intern: no rec group being defined")
	}
	p := in.pending
	reserved := int(p.end) - int(p.start)
	if in.store.NextTypeIndex() != p.end || p.filled != reserved {
		panic(fmt.Sprintf("intern: rec group %d defined %d of %d reserved types", g, p.filled, reserved))
	}

	idx := in.store.PushRecGroup(types.RecGroupRange{Start: p.start, End: p.end})
	if idx != p.group {
		panic(fmt.Sprintf("intern: rec group index drifted from %v to %v during definition", p.group, idx))
	}

	in.groupIndex[g] = idx
	in.state = stateIdle
	in.pending = pendingGroup{}
	in.tracer.Emit(trace.Event{
		Kind:   trace.KindEnd,
		Scope:  trace.ScopeGroup,
		Name:   "rec-group",
		Detail: fmt.Sprintf("%v = checker group %d", idx, g),
	})
	return idx
}

// abandonRecGroup resets the lifecycle after a failed conversion so the
// caller can retry with corrected input.
func (in *Interner) abandonRecGroup() {
	in.state = stateIdle
	in.pending = pendingGroup{}
}

// internTrampolineType gets or creates the trampoline type for the given
// function type and returns its canonical index.
func (in *Interner) internTrampolineType(forFunc types.ModuleTypeIndex) types.ModuleTypeIndex {
	f := in.store.MustType(forFunc).Composite.UnwrapFunc()
	derived, changed := f.TrampolineType()
	key := derived.Key()

	if idx, ok := in.trampolines[key]; ok {
		return idx
	}

	if !changed {
		// The signature is its own ABI-normalized form; reuse the original
		// definition and index.
		in.trampolines[key] = forFunc
		return forFunc
	}

	// The derived signature is distinct: intern it as a standalone
	// one-member group. It is its own trampoline.
	idx := in.store.Push(types.SubType{Composite: types.FuncComposite(derived)})
	in.store.SetTrampolineType(idx, idx)
	in.store.PushRecGroup(types.RecGroupRange{Start: idx, End: in.store.NextTypeIndex()})
	in.trampolines[key] = idx
	in.tracer.Emit(trace.Event{
		Kind:   trace.KindPoint,
		Scope:  trace.ScopeType,
		Name:   "trampoline",
		Detail: fmt.Sprintf("%v for %v", idx, forFunc),
	})
	return idx
}

// LenTypes returns the number of canonical types defined so far.
func (in *Interner) LenTypes() int {
	in.ensureLive()
	return in.store.LenTypes()
}

// RecGroupMembers returns the member indices of an interned group in
// declaration order.
func (in *Interner) RecGroupMembers(g types.RecGroupIndex) []types.ModuleTypeIndex {
	in.ensureLive()
	return in.store.RecGroupElements(g)
}

// TrampolineType returns the trampoline for an interned function type.
func (in *Interner) TrampolineType(ty types.ModuleTypeIndex) types.ModuleTypeIndex {
	in.ensureLive()
	return in.store.TrampolineType(ty)
}

// Type returns the canonical definition for idx, or false when idx has not
// been defined yet.
func (in *Interner) Type(idx types.ModuleTypeIndex) (*types.SubType, bool) {
	in.ensureLive()
	return in.store.Get(idx)
}

// MustType panics when idx has not been defined.
func (in *Interner) MustType(idx types.ModuleTypeIndex) *types.SubType {
	in.ensureLive()
	return in.store.MustType(idx)
}

// Finish consumes the interner and returns the final immutable store. Any
// later use of the interner panics.
func (in *Interner) Finish() *types.ModuleTypes {
	in.ensureLive()
	if in.state != stateIdle {
		panic("intern: Finish while a rec group is being defined")
	}
	in.tracer.Emit(trace.Event{
		Kind:   trace.KindPoint,
		Scope:  trace.ScopeSection,
		Name:   "finish",
		Detail: fmt.Sprintf("%d types, %d rec groups", in.store.LenTypes(), in.store.LenRecGroups()),
	})
	mt := in.store
	in.store = nil
	return mt
}
