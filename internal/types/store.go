package types

import (
	"fmt"
	"slices"
)

// RecGroupRange is the half-open range [Start, End) of one canonical
// recursion group's members. Members of a group always occupy contiguous
// indices in declaration order.
type RecGroupRange struct {
	Start ModuleTypeIndex
	End   ModuleTypeIndex
}

// Len returns the number of members in the range.
func (r RecGroupRange) Len() int { return int(r.End) - int(r.Start) }

func (r RecGroupRange) String() string {
	return fmt.Sprintf("[%d, %d)", uint32(r.Start), uint32(r.End))
}

// TrampolinePair associates a function type with its trampoline type.
type TrampolinePair struct {
	Func       ModuleTypeIndex
	Trampoline ModuleTypeIndex
}

// ModuleTypes is the append-only canonical type section of one module:
// the sequence of deduplicated type definitions, the recursion-group ranges
// covering them, and the trampoline back-pointer for every function type.
// Entries are never removed or rewritten, except that each function type's
// trampoline back-pointer is set exactly once after its group closes.
type ModuleTypes struct {
	types       []SubType
	trampolines []ModuleTypeIndex // parallel to types; NoModuleTypeIndex until set
	recGroups   []RecGroupRange
}

// NewModuleTypes constructs an empty type section.
func NewModuleTypes() *ModuleTypes {
	return &ModuleTypes{}
}

// Reserve grows capacity for n more type definitions.
func (mt *ModuleTypes) Reserve(n int) {
	mt.types = slices.Grow(mt.types, n)
	mt.trampolines = slices.Grow(mt.trampolines, n)
}

// LenTypes returns the number of defined types.
func (mt *ModuleTypes) LenTypes() int { return len(mt.types) }

// NextTypeIndex returns the index the next pushed type will receive.
func (mt *ModuleTypes) NextTypeIndex() ModuleTypeIndex {
	return typeIndexOf(len(mt.types))
}

// Push appends a type definition and returns its index.
func (mt *ModuleTypes) Push(st SubType) ModuleTypeIndex {
	idx := mt.NextTypeIndex()
	mt.types = append(mt.types, st)
	mt.trampolines = append(mt.trampolines, NoModuleTypeIndex)
	return idx
}

// Get returns the definition for idx, or false when idx has not been defined.
func (mt *ModuleTypes) Get(idx ModuleTypeIndex) (*SubType, bool) {
	if idx == NoModuleTypeIndex || int(idx) >= len(mt.types) {
		return nil, false
	}
	return &mt.types[idx], true
}

// MustType panics when idx has not been defined.
func (mt *ModuleTypes) MustType(idx ModuleTypeIndex) *SubType {
	st, ok := mt.Get(idx)
	if !ok {
		panic(fmt.Sprintf("types: no definition for %v", idx))
	}
	return st
}

// SetTrampolineType records the trampoline for a function type. Each
// function type gets exactly one trampoline; setting it twice or setting one
// on a non-function type is a fault.
func (mt *ModuleTypes) SetTrampolineType(ty, trampoline ModuleTypeIndex) {
	if trampoline == NoModuleTypeIndex {
		panic(fmt.Sprintf("types: setting no-index trampoline for %v", ty))
	}
	if !mt.MustType(ty).Composite.IsFunc() {
		panic(fmt.Sprintf("types: %v is not a function type", ty))
	}
	if mt.trampolines[ty] != NoModuleTypeIndex {
		panic(fmt.Sprintf("types: trampoline for %v already set", ty))
	}
	mt.trampolines[ty] = trampoline
}

// TrampolineType returns the trampoline for a function type. Panics when ty
// is not a function type or its group has not finished interning.
func (mt *ModuleTypes) TrampolineType(ty ModuleTypeIndex) ModuleTypeIndex {
	if !mt.MustType(ty).Composite.IsFunc() {
		panic(fmt.Sprintf("types: %v is not a function type", ty))
	}
	tr := mt.trampolines[ty]
	if tr == NoModuleTypeIndex {
		panic(fmt.Sprintf("types: trampoline for %v not interned", ty))
	}
	return tr
}

// TrampolinePairs returns every function type together with its trampoline,
// in index order. Types whose trampoline is not yet set are skipped.
func (mt *ModuleTypes) TrampolinePairs() []TrampolinePair {
	var pairs []TrampolinePair
	for i, tr := range mt.trampolines {
		if tr == NoModuleTypeIndex {
			continue
		}
		pairs = append(pairs, TrampolinePair{Func: typeIndexOf(i), Trampoline: tr})
	}
	return pairs
}

// LenRecGroups returns the number of closed recursion groups.
func (mt *ModuleTypes) LenRecGroups() int { return len(mt.recGroups) }

// NextRecGroupIndex returns the index the next pushed group will receive.
func (mt *ModuleTypes) NextRecGroupIndex() RecGroupIndex {
	return recGroupIndexOf(len(mt.recGroups))
}

// PushRecGroup appends a closed group's range and returns its index. The
// range must cover already-defined types.
func (mt *ModuleTypes) PushRecGroup(r RecGroupRange) RecGroupIndex {
	if r.Start > r.End || int(r.End) > len(mt.types) {
		panic(fmt.Sprintf("types: rec group range %v outside defined types (%d)", r, len(mt.types)))
	}
	idx := mt.NextRecGroupIndex()
	mt.recGroups = append(mt.recGroups, r)
	return idx
}

// RecGroup returns the range of a closed group.
func (mt *ModuleTypes) RecGroup(g RecGroupIndex) (RecGroupRange, bool) {
	if g == NoRecGroupIndex || int(g) >= len(mt.recGroups) {
		return RecGroupRange{}, false
	}
	return mt.recGroups[g], true
}

// RecGroupElements returns the member indices of a closed group in
// declaration order. The slice is freshly allocated on every call.
func (mt *ModuleTypes) RecGroupElements(g RecGroupIndex) []ModuleTypeIndex {
	r, ok := mt.RecGroup(g)
	if !ok {
		panic(fmt.Sprintf("types: no rec group %v", g))
	}
	elems := make([]ModuleTypeIndex, 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		elems = append(elems, i)
	}
	return elems
}

// RecGroups returns a copy of all closed group ranges in index order.
func (mt *ModuleTypes) RecGroups() []RecGroupRange {
	return slices.Clone(mt.recGroups)
}

// SubTypes returns a copy of the type sequence in index order.
func (mt *ModuleTypes) SubTypes() []SubType {
	return slices.Clone(mt.types)
}

// NewModuleTypesFromParts rebuilds a store from its serialized parts,
// validating internal consistency. Malformed parts produce an error rather
// than a panic: they come from outside the process.
func NewModuleTypesFromParts(subs []SubType, groups []RecGroupRange, trampolines []TrampolinePair) (*ModuleTypes, error) {
	mt := NewModuleTypes()
	mt.Reserve(len(subs))
	for _, st := range subs {
		switch st.Composite.Kind {
		case KindFunc, KindArray, KindStruct:
		default:
			return nil, fmt.Errorf("type %d: bad composite kind %d", len(mt.types), st.Composite.Kind)
		}
		mt.Push(st)
	}
	for _, r := range groups {
		if r.Start > r.End || int(r.End) > len(mt.types) {
			return nil, fmt.Errorf("rec group range %v outside defined types (%d)", r, len(mt.types))
		}
		mt.recGroups = append(mt.recGroups, r)
	}
	for _, p := range trampolines {
		st, ok := mt.Get(p.Func)
		if !ok || !st.Composite.IsFunc() {
			return nil, fmt.Errorf("trampoline recorded for %v, which is not a defined function type", p.Func)
		}
		if tr, ok := mt.Get(p.Trampoline); !ok || !tr.Composite.IsFunc() {
			return nil, fmt.Errorf("trampoline %v for %v is not a defined function type", p.Trampoline, p.Func)
		}
		if mt.trampolines[p.Func] != NoModuleTypeIndex {
			return nil, fmt.Errorf("duplicate trampoline entry for %v", p.Func)
		}
		mt.trampolines[p.Func] = p.Trampoline
	}
	return mt, nil
}
